package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"rekard/internal/domain"
	"rekard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

const testKey = "rekard.decks.v3"

func TestDeckRepo_LoadAll(t *testing.T) {
	tests := []struct {
		name          string
		mockRows      *sqlmock.Rows
		mockError     error
		expectedDecks int
		expectedErr   error
		expectError   bool
	}{
		{
			name: "snapshot found",
			mockRows: sqlmock.NewRows([]string{"payload"}).
				AddRow([]byte(`[{"id":"d1","name":"Go","icon":"book.fill","color":{"red":1,"green":0,"blue":0,"opacity":1},"cards":[{"id":"c1","question":"q","answer":"a","box":2}]}]`)),
			expectedDecks: 1,
		},
		{
			name:          "nothing saved yet",
			mockError:     sql.ErrNoRows,
			expectedDecks: 0,
		},
		{
			name:        "malformed payload",
			mockRows:    sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{{{`)),
			expectedErr: repository.ErrCorruptSnapshot,
			expectError: true,
		},
		{
			name:        "database error",
			mockError:   fmt.Errorf("connection refused"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewDeckRepo(db, testKey)

			query := "SELECT payload FROM deck_snapshots WHERE key = \\$1"
			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(testKey).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(testKey).WillReturnRows(tt.mockRows)
			}

			decks, err := repo.LoadAll()

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
				assert.Nil(t, decks)
			} else {
				assert.NoError(t, err)
				assert.Len(t, decks, tt.expectedDecks)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeckRepo_LoadAll_DecodesCards(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT payload FROM deck_snapshots").
		WithArgs(testKey).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow([]byte(`[{"id":"d1","name":"Go","cards":[{"id":"c1","question":"q","answer":"a","box":3,"lastReviewed":"2025-11-13T10:00:00Z"}]}]`)))

	decks, err := NewDeckRepo(db, testKey).LoadAll()

	assert.NoError(t, err)
	if assert.Len(t, decks, 1) && assert.Len(t, decks[0].Cards, 1) {
		card := decks[0].Cards[0]
		assert.Equal(t, domain.BoxKnow, card.Box)
		assert.NotNil(t, card.LastReviewed)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeckRepo_SaveAll(t *testing.T) {
	tests := []struct {
		name        string
		mockError   error
		expectError bool
	}{
		{name: "saved", mockError: nil, expectError: false},
		{name: "write failure", mockError: fmt.Errorf("disk full"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewDeckRepo(db, testKey)
			decks := []domain.Deck{{ID: "d1", Name: "Go"}}

			exp := mock.ExpectExec("INSERT INTO deck_snapshots").
				WithArgs(testKey, sqlmock.AnyArg())
			if tt.mockError != nil {
				exp.WillReturnError(tt.mockError)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err = repo.SaveAll(decks)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
