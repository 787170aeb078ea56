package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/xiaot623/serenai/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS circles (
			circle_id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			category TEXT NOT NULL,
			is_private INTEGER NOT NULL DEFAULT 0,
			is_anonymous INTEGER NOT NULL DEFAULT 1,
			max_members INTEGER NOT NULL DEFAULT 1000,
			total_members INTEGER NOT NULL DEFAULT 0,
			total_messages INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_circles_category ON circles(category)`,
		`CREATE TABLE IF NOT EXISTS circle_members (
			circle_id TEXT NOT NULL,
			anonymous_id TEXT NOT NULL,
			user_id TEXT,
			joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (circle_id, anonymous_id),
			FOREIGN KEY (circle_id) REFERENCES circles(circle_id)
		)`,
		// Messages reference circles loosely: a post to an unknown circle is still stored.
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			circle_id TEXT NOT NULL,
			user_id TEXT,
			anonymous_id TEXT,
			body TEXT NOT NULL,
			emotion TEXT,
			sentiment TEXT,
			likes INTEGER NOT NULL DEFAULT 0,
			supportive_replies INTEGER NOT NULL DEFAULT 0,
			replies TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_circle ON messages(circle_id, message_id)`,
		`CREATE TABLE IF NOT EXISTS moods (
			mood_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			mood_score INTEGER NOT NULL,
			mood_emoji TEXT NOT NULL,
			activities TEXT,
			triggers TEXT,
			notes TEXT,
			energy_level INTEGER,
			sleep_quality INTEGER,
			sentiment TEXT,
			ai_insights TEXT,
			logged_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moods_user ON moods(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS journals (
			journal_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			mood_at_time INTEGER,
			category TEXT,
			tags TEXT,
			sentiment TEXT,
			emotions TEXT,
			affirmation TEXT,
			is_private INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_user ON journals(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Columns added after the first release.
	if err := s.ensureColumn("messages", "supportive_replies", "ALTER TABLE messages ADD COLUMN supportive_replies INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCircle creates a new circle.
func (s *SQLiteStore) CreateCircle(ctx context.Context, circle *domain.Circle) error {
	if err := circle.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if circle.CreatedAt.IsZero() {
		circle.CreatedAt = now
	}
	circle.UpdatedAt = now
	if circle.MaxMembers == 0 {
		circle.MaxMembers = domain.DefaultMaxMembers
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO circles (circle_id, name, description, category, is_private, is_anonymous, max_members, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		circle.CircleID, circle.Name, nullString(circle.Description), string(circle.Category),
		circle.IsPrivate, circle.IsAnonymous, circle.MaxMembers, circle.CreatedAt, circle.UpdatedAt)
	return err
}

const circleColumns = `circle_id, name, description, category, is_private, is_anonymous, max_members,
	total_members, total_messages, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCircle(row rowScanner) (*domain.Circle, error) {
	var c domain.Circle
	var description sql.NullString
	var category string
	if err := row.Scan(&c.CircleID, &c.Name, &description, &category, &c.IsPrivate, &c.IsAnonymous,
		&c.MaxMembers, &c.TotalMembers, &c.TotalMessages, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = description.String
	c.Category = domain.Category(category)
	return &c, nil
}

// GetCircleSettings retrieves a circle's row without its member cache.
// It returns nil if the circle does not exist.
func (s *SQLiteStore) GetCircleSettings(ctx context.Context, circleID string) (*domain.Circle, error) {
	circle, err := scanCircle(s.db.QueryRowContext(ctx,
		`SELECT `+circleColumns+` FROM circles WHERE circle_id = ?`, circleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return circle, err
}

// GetCircle retrieves a circle with its member cache. It returns nil if the circle does not exist.
func (s *SQLiteStore) GetCircle(ctx context.Context, circleID string) (*domain.Circle, error) {
	circle, err := s.GetCircleSettings(ctx, circleID)
	if err != nil || circle == nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT anonymous_id, user_id, joined_at FROM circle_members WHERE circle_id = ? ORDER BY joined_at ASC, anonymous_id ASC`,
		circleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Member
		var userID sql.NullString
		if err := rows.Scan(&m.AnonymousID, &userID, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.UserID = userID.String
		circle.Members = append(circle.Members, m)
	}
	return circle, rows.Err()
}

// ListCircles lists circles ordered by name, optionally filtered by category.
func (s *SQLiteStore) ListCircles(ctx context.Context, category domain.Category) ([]domain.Circle, error) {
	query := `SELECT ` + circleColumns + ` FROM circles`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	circles := []domain.Circle{}
	for rows.Next() {
		c, err := scanCircle(rows)
		if err != nil {
			return nil, err
		}
		circles = append(circles, *c)
	}
	return circles, rows.Err()
}

// AddCircleMember records a pseudonym in the circle's member cache. Re-joining with a
// known pseudonym is a no-op. Returns domain.ErrNotFound if the circle does not exist.
func (s *SQLiteStore) AddCircleMember(ctx context.Context, circleID string, member domain.Member) error {
	if member.AnonymousID == "" {
		return domain.Invalid("anonymousId", "is required")
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	joinedAt := member.JoinedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM circles WHERE circle_id = ?`, circleID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("circle %s: %w", circleID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO circle_members (circle_id, anonymous_id, user_id, joined_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(circle_id, anonymous_id) DO NOTHING`,
		circleID, member.AnonymousID, nullString(member.UserID), joinedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE circles SET total_members = total_members + 1, updated_at = ? WHERE circle_id = ?`,
			joinedAt, circleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendMessage inserts a message and bumps the circle's message counter.
// The message id and timestamps are generated here and written back into message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, message *domain.Message) error {
	id := ulid.Make()
	created := ulid.Time(id.Time()).UTC()
	message.MessageID = id.String()
	message.CreatedAt = created
	message.UpdatedAt = created
	message.Likes = 0
	message.SupportiveReplies = 0
	if message.Replies == nil {
		message.Replies = []domain.Reply{}
	}

	sentiment, err := marshalNullable(message.Sentiment)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, circle_id, user_id, anonymous_id, body, emotion, sentiment, likes, supportive_replies, replies, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, '[]', ?, ?)`,
		message.MessageID, message.CircleID, nullString(message.UserID), nullString(message.AnonymousID),
		message.Text, nullString(string(message.Emotion)), sentiment, created, created); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE circles SET total_messages = total_messages + 1, updated_at = ? WHERE circle_id = ?`,
		created, message.CircleID); err != nil {
		return err
	}
	return tx.Commit()
}

const messageColumns = `message_id, circle_id, user_id, anonymous_id, body, emotion, sentiment,
	likes, supportive_replies, replies, created_at, updated_at`

func scanMessage(row rowScanner) (*domain.Message, error) {
	var msg domain.Message
	var userID, anonymousID, emotion, sentiment sql.NullString
	var replies string
	if err := row.Scan(&msg.MessageID, &msg.CircleID, &userID, &anonymousID, &msg.Text, &emotion, &sentiment,
		&msg.Likes, &msg.SupportiveReplies, &replies, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
		return nil, err
	}
	msg.UserID = userID.String
	msg.AnonymousID = anonymousID.String
	msg.Emotion = domain.Emotion(emotion.String)
	if sentiment.Valid {
		msg.Sentiment = &domain.Sentiment{}
		if err := json.Unmarshal([]byte(sentiment.String), msg.Sentiment); err != nil {
			return nil, fmt.Errorf("decode sentiment of %s: %w", msg.MessageID, err)
		}
	}
	msg.Replies = []domain.Reply{}
	if err := json.Unmarshal([]byte(replies), &msg.Replies); err != nil {
		return nil, fmt.Errorf("decode replies of %s: %w", msg.MessageID, err)
	}
	return &msg, nil
}

// GetMessage retrieves a message by ID. It returns nil if the message does not exist.
func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, err := scanMessage(s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE message_id = ?`, messageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return msg, err
}

// ListMessages returns a circle's messages newest first. before is an exclusive message id cursor.
func (s *SQLiteStore) ListMessages(ctx context.Context, circleID string, limit int, before string) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE circle_id = ?`
	args := []interface{}{circleID}

	if before != "" {
		query += ` AND message_id < ?`
		args = append(args, before)
	}

	query += ` ORDER BY message_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// IncrementLikes atomically adds one like. It reports false if no message matched.
func (s *SQLiteStore) IncrementLikes(ctx context.Context, messageID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET likes = likes + 1, updated_at = ? WHERE message_id = ?`,
		time.Now().UTC(), messageID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendReply atomically appends a reply to the message's reply list.
// It reports false if no message matched.
func (s *SQLiteStore) AppendReply(ctx context.Context, messageID string, reply domain.Reply) (bool, error) {
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	reply.CreatedAt = reply.CreatedAt.UTC()
	data, err := json.Marshal(reply)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE messages
		 SET replies = json_insert(replies, '$[#]', json(?)),
		     supportive_replies = supportive_replies + 1,
		     updated_at = ?
		 WHERE message_id = ?`,
		string(data), reply.CreatedAt, messageID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateMood stores a mood log.
func (s *SQLiteStore) CreateMood(ctx context.Context, mood *domain.Mood) error {
	activities, err := marshalNullable(mood.Activities)
	if err != nil {
		return err
	}
	triggers, err := marshalNullable(mood.Triggers)
	if err != nil {
		return err
	}
	sentiment, err := marshalNullable(mood.Sentiment)
	if err != nil {
		return err
	}
	insights, err := marshalNullable(mood.AIInsights)
	if err != nil {
		return err
	}
	mood.LoggedAt = mood.LoggedAt.UTC()
	mood.CreatedAt = mood.CreatedAt.UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO moods (mood_id, user_id, mood_score, mood_emoji, activities, triggers, notes, energy_level, sleep_quality, sentiment, ai_insights, logged_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mood.MoodID, mood.UserID, mood.MoodScore, mood.MoodEmoji, activities, triggers, nullString(mood.Notes),
		nullInt(mood.EnergyLevel), nullInt(mood.SleepQuality), sentiment, insights, mood.LoggedAt, mood.CreatedAt)
	return err
}

// ListMoods returns a user's moods created at or after since, newest first.
func (s *SQLiteStore) ListMoods(ctx context.Context, userID string, since time.Time, limit int) ([]domain.Mood, error) {
	query := `SELECT mood_id, user_id, mood_score, mood_emoji, activities, triggers, notes, energy_level, sleep_quality, sentiment, ai_insights, logged_at, created_at
		FROM moods WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC, mood_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	moods := []domain.Mood{}
	for rows.Next() {
		var m domain.Mood
		var activities, triggers, notes, sentiment, insights sql.NullString
		var energy, sleep sql.NullInt64
		if err := rows.Scan(&m.MoodID, &m.UserID, &m.MoodScore, &m.MoodEmoji, &activities, &triggers, &notes,
			&energy, &sleep, &sentiment, &insights, &m.LoggedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Notes = notes.String
		m.EnergyLevel = int(energy.Int64)
		m.SleepQuality = int(sleep.Int64)
		if err := unmarshalNullable(activities, &m.Activities); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(triggers, &m.Triggers); err != nil {
			return nil, err
		}
		if sentiment.Valid {
			m.Sentiment = &domain.Sentiment{}
			if err := unmarshalNullable(sentiment, m.Sentiment); err != nil {
				return nil, err
			}
		}
		if insights.Valid {
			m.AIInsights = &domain.Insights{}
			if err := unmarshalNullable(insights, m.AIInsights); err != nil {
				return nil, err
			}
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

// CreateJournal stores a journal entry.
func (s *SQLiteStore) CreateJournal(ctx context.Context, entry *domain.JournalEntry) error {
	tags, err := marshalNullable(entry.Tags)
	if err != nil {
		return err
	}
	sentiment, err := marshalNullable(entry.Sentiment)
	if err != nil {
		return err
	}
	emotions, err := marshalNullable(entry.Emotions)
	if err != nil {
		return err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO journals (journal_id, user_id, title, content, mood_at_time, category, tags, sentiment, emotions, affirmation, is_private, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.JournalID, entry.UserID, entry.Title, entry.Content, nullInt(entry.MoodAtTime),
		nullString(string(entry.Category)), tags, sentiment, emotions, nullString(entry.Affirmation),
		entry.IsPrivate, entry.CreatedAt)
	return err
}

// ListJournals returns a user's journal entries newest first.
func (s *SQLiteStore) ListJournals(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error) {
	query := `SELECT journal_id, user_id, title, content, mood_at_time, category, tags, sentiment, emotions, affirmation, is_private, created_at
		FROM journals WHERE user_id = ? ORDER BY created_at DESC, journal_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		var e domain.JournalEntry
		var moodAt sql.NullInt64
		var category, tags, sentiment, emotions, affirmation sql.NullString
		if err := rows.Scan(&e.JournalID, &e.UserID, &e.Title, &e.Content, &moodAt, &category, &tags,
			&sentiment, &emotions, &affirmation, &e.IsPrivate, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.MoodAtTime = int(moodAt.Int64)
		e.Category = domain.JournalCategory(category.String)
		e.Affirmation = affirmation.String
		if err := unmarshalNullable(tags, &e.Tags); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(emotions, &e.Emotions); err != nil {
			return nil, err
		}
		if sentiment.Valid {
			e.Sentiment = &domain.Sentiment{}
			if err := unmarshalNullable(sentiment, e.Sentiment); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// IsUniqueViolation reports whether err comes from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

// marshalNullable encodes v as JSON, mapping nil pointers and empty slices to NULL.
func marshalNullable(v interface{}) (sql.NullString, error) {
	switch t := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case *domain.Sentiment:
		if t == nil {
			return sql.NullString{}, nil
		}
	case *domain.Insights:
		if t == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalNullable(ns sql.NullString, dst interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
