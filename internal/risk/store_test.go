package risk

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("INSERT INTO risk_assessments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	a := &Assessment{
		OrgID:      "org-1",
		UserID:     "user-1",
		SoulID:     "soul-1",
		Level:      LevelHigh,
		Categories: []string{"self_harm", "self_harm"},
		Confidence: 1.7, // out of range, must be clamped
		Reasoning:  "expressed self-harm intent",
	}
	err = store.Save(context.Background(), a)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID, "Save assigns an id")
	assert.False(t, a.AssessedAt.IsZero(), "Save assigns a timestamp")
	assert.Equal(t, 1.0, a.Confidence, "confidence clamped before persistence")
	assert.Equal(t, []string{"self_harm"}, a.Categories, "duplicate categories removed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveInvalidLevelCoerced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	mock.ExpectExec("INSERT INTO risk_assessments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	a := &Assessment{OrgID: "org-1", Level: Level("bogus")}
	require.NoError(t, store.Save(context.Background(), a))
	assert.Equal(t, LevelMedium, a.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByOrg(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "org_id", "user_id", "soul_id", "risk_level", "risk_categories",
		"confidence_score", "reasoning", "requires_human_review",
		"auto_response_blocked", "assessed_at",
	}).AddRow(
		"a-1", "org-1", "user-1", "soul-1", "critical", []byte(`["suicide"]`),
		0.9, "stated plan", true, true, now,
	).AddRow(
		"a-2", "org-1", "user-2", "soul-1", "low", []byte(`[]`),
		0.95, "small talk", false, false, now.Add(-time.Hour),
	)

	mock.ExpectQuery("SELECT (.+) FROM risk_assessments").
		WillReturnRows(rows)

	assessments, err := store.ListByOrg(context.Background(), "org-1", 7*24*time.Hour, 100)
	require.NoError(t, err)
	require.Len(t, assessments, 2)

	assert.Equal(t, LevelCritical, assessments[0].Level)
	assert.Equal(t, []string{"suicide"}, assessments[0].Categories)
	assert.True(t, assessments[0].AutoResponseBlocked)
	assert.Equal(t, LevelLow, assessments[1].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_HighRiskConversations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"user_id", "soul_id", "max", "count", "last"}).
		AddRow("user-1", "soul-1", 2, 3, now).
		AddRow("user-2", "soul-2", 1, 1, now.Add(-2*time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM risk_assessments").
		WillReturnRows(rows)

	conversations, err := store.HighRiskConversations(context.Background(), "org-1", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	assert.Equal(t, LevelCritical, conversations[0].MaxLevel)
	assert.Equal(t, 3, conversations[0].AssessmentCount)
	assert.Equal(t, LevelHigh, conversations[1].MaxLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
