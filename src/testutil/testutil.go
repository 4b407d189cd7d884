// Package testutil holds helpers shared by package tests: an isolated sqlite
// database and a scriptable fake of the Books service gateway.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/biblioteca/loans-service/src/clients"
	"github.com/biblioteca/loans-service/src/db"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database private to the test.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

// FakeBookGateway is an in-memory Books service. Missing books answer
// ErrRemoteNotFound; the Err fields force a failure for the matching call.
type FakeBookGateway struct {
	mu    sync.Mutex
	books map[int]*clients.BookSummary
	calls []string

	AvailableErr error
	SummaryErr   error
	DecrementErr error
	IncrementErr error
}

// NewFakeBookGateway returns a gateway with no books.
func NewFakeBookGateway() *FakeBookGateway {
	return &FakeBookGateway{books: make(map[int]*clients.BookSummary)}
}

// AddBook registers a book with the given stock.
func (g *FakeBookGateway) AddBook(id int, title string, stock int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.books[id] = &clients.BookSummary{ID: id, Title: title, StockCount: stock, Available: stock > 0}
}

// Stock returns the current stock of a book, or -1 when unknown.
func (g *FakeBookGateway) Stock(id int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.books[id]; ok {
		return b.StockCount
	}
	return -1
}

// Calls returns the recorded calls as "Method id".
func (g *FakeBookGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// CallCount counts recorded calls of one method.
func (g *FakeBookGateway) CallCount(method string) int {
	n := 0
	for _, c := range g.Calls() {
		if strings.HasPrefix(c, method+" ") {
			n++
		}
	}
	return n
}

func (g *FakeBookGateway) record(method string, id int) (*clients.BookSummary, error) {
	g.calls = append(g.calls, fmt.Sprintf("%s %d", method, id))
	b, ok := g.books[id]
	if !ok {
		return nil, clients.ErrRemoteNotFound
	}
	return b, nil
}

func (g *FakeBookGateway) IsAvailable(_ context.Context, bookID int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AvailableErr != nil {
		g.calls = append(g.calls, fmt.Sprintf("IsAvailable %d", bookID))
		return false, g.AvailableErr
	}
	b, err := g.record("IsAvailable", bookID)
	if err != nil {
		return false, err
	}
	return b.StockCount > 0, nil
}

func (g *FakeBookGateway) FetchSummary(_ context.Context, bookID int) (*clients.BookSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SummaryErr != nil {
		g.calls = append(g.calls, fmt.Sprintf("FetchSummary %d", bookID))
		return nil, g.SummaryErr
	}
	b, err := g.record("FetchSummary", bookID)
	if err != nil {
		return nil, err
	}
	copied := *b
	return &copied, nil
}

func (g *FakeBookGateway) DecrementStock(_ context.Context, bookID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DecrementErr != nil {
		g.calls = append(g.calls, fmt.Sprintf("DecrementStock %d", bookID))
		return g.DecrementErr
	}
	b, err := g.record("DecrementStock", bookID)
	if err != nil {
		return err
	}
	if b.StockCount == 0 {
		return clients.ErrRemoteRejected
	}
	b.StockCount--
	b.Available = b.StockCount > 0
	return nil
}

func (g *FakeBookGateway) IncrementStock(_ context.Context, bookID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.IncrementErr != nil {
		g.calls = append(g.calls, fmt.Sprintf("IncrementStock %d", bookID))
		return g.IncrementErr
	}
	b, err := g.record("IncrementStock", bookID)
	if err != nil {
		return err
	}
	b.StockCount++
	b.Available = true
	return nil
}
