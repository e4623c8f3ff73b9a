package mysql

import (
	"errors"
	"fmt"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (
  id INT
);

CREATE TABLE b (id INT); -- not a terminator
INSERT INTO b VALUES (1);
`
	got := splitStatements(script)
	assert.Equal(t, []string{
		"CREATE TABLE a (\n  id INT\n)",
		"CREATE TABLE b (id INT); -- not a terminator\nINSERT INTO b VALUES (1)",
	}, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	b, err := migrations.ReadFile("migrations/0001_init.sql")
	assert.NoError(t, err)
	stmts := splitStatements(string(b))
	assert.Len(t, stmts, 4)
	assert.Contains(t, stmts[3], "CREATE TABLE IF NOT EXISTS hotel_scoring")
}

func TestTxErr(t *testing.T) {
	deadlock := &driver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	timeout := &driver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	dup := &driver.MySQLError{Number: 1062, Message: "Duplicate entry"}

	assert.ErrorIs(t, txErr(deadlock), domain.ErrTxAborted)
	assert.ErrorIs(t, txErr(fmt.Errorf("exec: %w", timeout)), domain.ErrTxAborted)
	assert.NotErrorIs(t, txErr(dup), domain.ErrTxAborted)
	assert.Same(t, dup, txErr(dup))

	other := errors.New("bad connection")
	assert.Equal(t, other, txErr(other))
	assert.NoError(t, txErr(nil))
}
