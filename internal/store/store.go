// Package store provides database access methods for all Threadline
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
// Lookups return (nil, nil) when the row does not exist.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSlugTaken is returned by inserts and updates that hit a unique slug
// index. Callers pick a new slug and retry.
var ErrSlugTaken = errors.New("slug already taken")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// FlowFilter narrows flow listings.
type FlowFilter struct {
	AuthorID       *uuid.UUID
	ParentID       *uuid.UUID
	IncludeDeleted bool
}

// PostSort selects the ordering of post listings.
type PostSort string

const (
	SortRecent PostSort = "recent"
	SortViews  PostSort = "views"
)

// PostFilter narrows post listings.
type PostFilter struct {
	UserID   *uuid.UUID
	TopicID  *uuid.UUID
	ParentID *uuid.UUID
	// RootOnly keeps posts without a parent.
	RootOnly bool
	// Public keeps published posts in active topics.
	Public bool
	Sort   PostSort
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// conditions accumulates WHERE clauses with positional arguments.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

func (c *conditions) addRaw(clause string) {
	c.clauses = append(c.clauses, clause)
}

// where renders the clause, or an empty string when there are no conditions.
func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the suffix.
func (c *conditions) page(limit, offset int) string {
	c.args = append(c.args, limit, offset)
	n := len(c.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
