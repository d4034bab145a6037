package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the lifecycle operations below. Handlers map
// these onto HTTP status codes.
var (
	// ErrNotFound means no event row exists for the given id.
	ErrNotFound = errors.New("event not found")
	// ErrNotAuthorized means the caller is not the event's organizer.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotPerformed means the guarded update matched no rows: the event
	// was already ended, not live, or protected by a manual override.
	ErrNotPerformed = errors.New("not performed")
)

// Event is a scheduled or live streamed event.
type Event struct {
	ID          string
	Title       string
	Status      string
	Platform    string
	StreamURL   string
	StartDate   time.Time
	EndDate     time.Time
	OrganizerID string

	ManualOverride   bool
	ManualOverrideBy sql.NullString
	ManualOverrideAt sql.NullTime

	ConsecutiveFailures int
	LastStatusCheck     sql.NullTime
	LastSuccessfulCheck sql.NullTime
	LastFailureAt       sql.NullTime
	LastAPIError        sql.NullString
	LastAPIErrorAt      sql.NullTime

	EndedAt         sql.NullTime
	AutoEndedReason sql.NullString
}

const eventColumns = `id, title, status, platform, stream_url, start_date, end_date, organizer_id,
	manual_override, manual_override_by, manual_override_at,
	consecutive_failures, last_status_check, last_successful_check, last_failure_at,
	last_api_error, last_api_error_at, ended_at, auto_ended_reason`

func scanEvent(row interface{ Scan(...any) error }) (*Event, error) {
	var (
		e         Event
		title     sql.NullString
		streamURL sql.NullString
		startDate sql.NullTime
		endDate   sql.NullTime
	)
	if err := row.Scan(&e.ID, &title, &e.Status, &e.Platform, &streamURL, &startDate, &endDate, &e.OrganizerID,
		&e.ManualOverride, &e.ManualOverrideBy, &e.ManualOverrideAt,
		&e.ConsecutiveFailures, &e.LastStatusCheck, &e.LastSuccessfulCheck, &e.LastFailureAt,
		&e.LastAPIError, &e.LastAPIErrorAt, &e.EndedAt, &e.AutoEndedReason); err != nil {
		return nil, err
	}
	// These columns are nullable. NULLs collapse to zero values: a missing
	// stream_url means the monitor skips the event, a missing end_date means
	// the grace cutoff never applies.
	e.Title = title.String
	e.StreamURL = streamURL.String
	e.StartDate = startDate.Time
	e.EndDate = endDate.Time
	return &e, nil
}

// Get fetches a single event by id.
func Get(ctx context.Context, dbc *sql.DB, id string) (*Event, error) {
	row := dbc.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListLive returns every event currently in status 'live', oldest start first.
// These are the candidates each monitor run checks.
func ListLive(ctx context.Context, dbc *sql.DB) ([]Event, error) {
	rows, err := dbc.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE status='live' ORDER BY start_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list live events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan live event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// RecordLive records a successful check that confirmed the stream live. The
// failure counter resets to zero.
func RecordLive(ctx context.Context, dbc *sql.DB, id string) error {
	_, err := dbc.ExecContext(ctx, `UPDATE events SET consecutive_failures=0,
		last_status_check=NOW(), last_successful_check=NOW(),
		last_api_error=NULL, last_api_error_at=NULL, updated_at=NOW()
		WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("record live: %w", err)
	}
	return nil
}

// RecordUnreliable records a check whose platform verdict could not be
// trusted (API errors, exhausted retries). The failure counter is left
// untouched: an unreachable API says nothing about the stream itself.
func RecordUnreliable(ctx context.Context, dbc *sql.DB, id, apiErr string) error {
	_, err := dbc.ExecContext(ctx, `UPDATE events SET
		last_status_check=NOW(), last_api_error=$2, last_api_error_at=NOW(), updated_at=NOW()
		WHERE id=$1`, id, apiErr)
	if err != nil {
		return fmt.Errorf("record unreliable: %w", err)
	}
	return nil
}

// RecordOffline records an authoritative offline verdict and returns the new
// consecutive failure count.
func RecordOffline(ctx context.Context, dbc *sql.DB, id string) (int, error) {
	var n int
	err := dbc.QueryRowContext(ctx, `UPDATE events SET consecutive_failures=consecutive_failures+1,
		last_status_check=NOW(), last_failure_at=NOW(), updated_at=NOW()
		WHERE id=$1 RETURNING consecutive_failures`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("record offline: %w", err)
	}
	return n, nil
}

// End transitions a live event to 'ended' with the given reason and flips the
// organizer's is_live flag. The UPDATE carries the full intent in its WHERE
// clause so a manual override or a concurrent end wins the race: zero rows
// affected returns ErrNotPerformed and nothing else is touched.
func End(ctx context.Context, dbc *sql.DB, id, reason string) error {
	res, err := dbc.ExecContext(ctx, `UPDATE events SET status='ended', ended_at=NOW(),
		auto_ended_reason=$2, updated_at=NOW()
		WHERE id=$1 AND status='live' AND NOT manual_override`, id, reason)
	if err != nil {
		return fmt.Errorf("end event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end event rows: %w", err)
	}
	if n == 0 {
		return ErrNotPerformed
	}
	_, err = dbc.ExecContext(ctx, `UPDATE users SET is_live=false, last_live_at=NOW(), updated_at=NOW()
		WHERE id=(SELECT organizer_id FROM events WHERE id=$1)`, id)
	if err != nil {
		return fmt.Errorf("end event organizer: %w", err)
	}
	return nil
}

// ForceEnd ends an event on behalf of its organizer regardless of the
// automatic monitoring state. Manual override does not protect against the
// organizer's own explicit request.
func ForceEnd(ctx context.Context, dbc *sql.DB, id, organizerID, reason string) error {
	e, err := Get(ctx, dbc, id)
	if err != nil {
		return err
	}
	if e.OrganizerID != organizerID {
		return ErrNotAuthorized
	}
	if e.Status != "live" {
		return ErrNotPerformed
	}
	res, err := dbc.ExecContext(ctx, `UPDATE events SET status='ended', ended_at=NOW(),
		auto_ended_reason=$2, updated_at=NOW()
		WHERE id=$1 AND status='live'`, id, reason)
	if err != nil {
		return fmt.Errorf("force end: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("force end rows: %w", err)
	}
	if n == 0 {
		return ErrNotPerformed
	}
	_, err = dbc.ExecContext(ctx, `UPDATE users SET is_live=false, last_live_at=NOW(), updated_at=NOW()
		WHERE id=$1`, e.OrganizerID)
	if err != nil {
		return fmt.Errorf("force end organizer: %w", err)
	}
	return nil
}

// SetManualOverride sets or clears the override flag that shields a live
// event from automatic ending. Only the organizer may toggle it. The flag is
// advisory state alongside the event; it never changes status.
func SetManualOverride(ctx context.Context, dbc *sql.DB, id, organizerID string, override bool) error {
	e, err := Get(ctx, dbc, id)
	if err != nil {
		return err
	}
	if e.OrganizerID != organizerID {
		return ErrNotAuthorized
	}
	var res sql.Result
	if override {
		res, err = dbc.ExecContext(ctx, `UPDATE events SET manual_override=true,
			manual_override_by=$2, manual_override_at=NOW(), updated_at=NOW()
			WHERE id=$1`, id, organizerID)
	} else {
		res, err = dbc.ExecContext(ctx, `UPDATE events SET manual_override=false,
			manual_override_by=NULL, manual_override_at=NULL, updated_at=NOW()
			WHERE id=$1`, id)
	}
	if err != nil {
		return fmt.Errorf("set manual override: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set manual override rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountLive returns the number of events currently in status 'live'.
func CountLive(ctx context.Context, dbc *sql.DB) (int, error) {
	var n int
	if err := dbc.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE status='live'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count live events: %w", err)
	}
	return n, nil
}
