package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smokedash/internal/auth"
	"smokedash/internal/database"
	"smokedash/internal/handlers"
	"smokedash/internal/middleware"
	"smokedash/internal/models"
	"smokedash/internal/reports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// run executes one CLI invocation against dir, the way a fresh process would.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, dir, "", args...)
}

func runWithInput(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POS_LOG_LEVEL", "error")

	opts := &RootOptions{hasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	cmd := newRootCommand(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, "pos %s", strings.Join(args, " "))
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func loggedIn(t *testing.T, username string) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, "login", username, "--password", "123")
	return dir
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pos", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"login"}, {"logout"}, {"whoami"},
		{"product", "add"}, {"product", "adjust"}, {"product", "low"},
		{"sale", "record"}, {"sale", "delete"},
		{"shift", "open"}, {"shift", "close"}, {"shift", "report"},
		{"customer", "collect"},
		{"user", "passwd"},
		{"settings", "set"},
		{"report", "sales"}, {"report", "summary"}, {"report", "top"}, {"report", "payments"}, {"report", "export"},
		{"reconcile"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("data-dir"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, t.TempDir(), "--format", "yaml", "logout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error", NewExitError(ExitCommandError, "boom"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "inner", errors.New("x"))), ExitFailure},
		{"persistence", fmt.Errorf("save: %w", database.ErrPersistence), ExitCommandError},
		{"validation", database.ErrInsufficientStock, ExitFailure},
		{"forbidden", middleware.ErrForbidden, ExitFailure},
		{"plain", errors.New("something"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestLogin(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "login", "admin", "--password", "wrong")
	require.ErrorIs(t, err, database.ErrInvalidCredentials)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := runWithInput(t, dir, "123\n", "login", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin (admin)")

	who := decode[session](t, mustRun(t, dir, "--format", "json", "whoami"))
	assert.Equal(t, "admin", who.Username)
	assert.ElementsMatch(t, models.AllPages, who.Permissions)

	mustRun(t, dir, "logout")
	_, err = run(t, dir, "whoami")
	require.ErrorIs(t, err, middleware.ErrUnauthenticated)
}

func TestGuards(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "product", "list")
	require.ErrorIs(t, err, middleware.ErrUnauthenticated)

	mustRun(t, dir, "login", "cashier", "--password", "123")

	_, err = run(t, dir, "user", "list")
	require.ErrorIs(t, err, middleware.ErrForbidden)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, dir, "product", "add", "--name", "X", "--price", "1")
	require.ErrorIs(t, err, middleware.ErrForbidden)

	// The till search is on the POS page, which cashiers have.
	mustRun(t, dir, "product", "search", "anything")
}

func TestSaleLifecycle(t *testing.T) {
	dir := loggedIn(t, "admin")

	product := decode[models.Product](t, mustRun(t, dir, "--format", "json",
		"product", "add", "--name", "Marlboro Red", "--brand", "Marlboro", "--price", "12.5", "--stock", "10", "--barcode", "111"))
	customer := decode[models.Customer](t, mustRun(t, dir, "--format", "json",
		"customer", "add", "--name", "Ali", "--phone", "0910000000"))
	shift := decode[models.Shift](t, mustRun(t, dir, "--format", "json", "shift", "open", "--cash", "50"))

	prefix := database.InvoicePrefix(time.Now().Year())
	sale := decode[models.Sale](t, mustRun(t, dir, "--format", "json",
		"sale", "record", "--item", product.ID+":2", "--barcode", "111", "--method", "Debt", "--customer", customer.ID))
	assert.Equal(t, prefix+"0001", sale.InvoiceNumber)
	assert.InDelta(t, 37.5, sale.TotalAmount, 1e-9)
	require.NotNil(t, sale.ShiftID)
	assert.Equal(t, shift.ID, *sale.ShiftID)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 3, sale.Items[0].Quantity)

	after := decode[models.Product](t, mustRun(t, dir, "--format", "json", "product", "show", "111"))
	assert.Equal(t, 7, after.Stock)
	owed := decode[models.Customer](t, mustRun(t, dir, "--format", "json", "customer", "show", customer.ID))
	assert.InDelta(t, 37.5, owed.Debt, 1e-9)

	out := mustRun(t, dir, "sale", "show", prefix+"0001")
	assert.Contains(t, out, "Marlboro Red")

	mustRun(t, dir, "sale", "delete", prefix+"0001")
	restored := decode[models.Product](t, mustRun(t, dir, "--format", "json", "product", "show", product.ID))
	assert.Equal(t, 10, restored.Stock)
	cleared := decode[models.Customer](t, mustRun(t, dir, "--format", "json", "customer", "show", customer.ID))
	assert.InDelta(t, 0, cleared.Debt, 1e-9)

	_, err := run(t, dir, "sale", "show", prefix+"0001")
	require.ErrorIs(t, err, database.ErrNotFound)

	second := decode[models.Sale](t, mustRun(t, dir, "--format", "json", "sale", "record", "--item", product.ID))
	assert.Equal(t, prefix+"0002", second.InvoiceNumber)

	status := decode[handlers.SystemStatus](t, mustRun(t, dir, "--format", "json", "reconcile"))
	assert.True(t, status.Consistent)
	assert.Zero(t, status.Divergences)
}

func TestSaleRecord_Rejected(t *testing.T) {
	dir := loggedIn(t, "admin")
	product := decode[models.Product](t, mustRun(t, dir, "--format", "json",
		"product", "add", "--name", "Lighter", "--price", "2", "--stock", "1"))

	_, err := run(t, dir, "sale", "record")
	require.ErrorIs(t, err, handlers.ErrEmptyCart)

	_, err = run(t, dir, "sale", "record", "--item", product.ID+":5")
	require.ErrorIs(t, err, database.ErrInsufficientStock)

	_, err = run(t, dir, "sale", "record", "--item", product.ID+":x")
	require.ErrorIs(t, err, database.ErrValidation)

	_, err = run(t, dir, "sale", "record", "--item", product.ID, "--method", "Debt")
	require.ErrorIs(t, err, database.ErrValidation)

	unchanged := decode[models.Product](t, mustRun(t, dir, "--format", "json", "product", "show", product.ID))
	assert.Equal(t, 1, unchanged.Stock)
}

func TestShiftCommands(t *testing.T) {
	dir := loggedIn(t, "cashier")

	_, err := run(t, dir, "shift", "status")
	require.ErrorIs(t, err, database.ErrNotFound)

	mustRun(t, dir, "shift", "open", "--cash", "100")
	_, err = run(t, dir, "shift", "open", "--cash", "100")
	require.ErrorIs(t, err, database.ErrShiftAlreadyOpen)

	out := mustRun(t, dir, "shift", "status")
	assert.Contains(t, out, "X REPORT")

	_, err = run(t, dir, "shift", "close")
	require.ErrorIs(t, err, database.ErrValidation)

	out = mustRun(t, dir, "shift", "close", "--cash", "100", "--notes", "quiet day")
	assert.Contains(t, out, "Z REPORT")

	_, err = run(t, dir, "shift", "status")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestProductCommands(t *testing.T) {
	dir := loggedIn(t, "admin")
	p := decode[models.Product](t, mustRun(t, dir, "--format", "json",
		"product", "add", "--name", "Gum", "--price", "1.5", "--stock", "3"))

	updated := decode[models.Product](t, mustRun(t, dir, "--format", "json", "product", "update", p.ID, "--price", "2"))
	assert.InDelta(t, 2.0, updated.Price, 1e-9)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, "Gum", updated.Name)

	adjusted := decode[models.Product](t, mustRun(t, dir, "--format", "json", "product", "adjust", p.ID, "--by=-2"))
	assert.Equal(t, 1, adjusted.Stock)

	_, err := run(t, dir, "product", "adjust", p.ID)
	require.ErrorIs(t, err, database.ErrValidation)

	out := mustRun(t, dir, "product", "low")
	assert.Contains(t, out, "Gum")

	mustRun(t, dir, "product", "delete", p.ID)
	_, err = run(t, dir, "product", "show", p.ID)
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestCustomerCollect(t *testing.T) {
	dir := loggedIn(t, "admin")
	p := decode[models.Product](t, mustRun(t, dir, "--format", "json",
		"product", "add", "--name", "Box", "--price", "40", "--stock", "5"))
	c := decode[models.Customer](t, mustRun(t, dir, "--format", "json", "customer", "add", "--name", "Omar"))
	mustRun(t, dir, "sale", "record", "--item", p.ID, "--method", "Debt", "--customer", c.ID)

	_, err := run(t, dir, "customer", "collect", c.ID, "--amount", "50")
	require.ErrorIs(t, err, database.ErrValidation)

	paid := decode[models.Customer](t, mustRun(t, dir, "--format", "json", "customer", "collect", c.ID, "--amount", "15"))
	assert.InDelta(t, 25, paid.Debt, 1e-9)
}

func TestUserCommands(t *testing.T) {
	dir := loggedIn(t, "admin")

	u := decode[models.User](t, mustRun(t, dir, "--format", "json",
		"user", "add", "sara", "--password", "pw", "--role", "manager", "--full-name", "Sara"))
	assert.Equal(t, models.RoleManager, u.Role)
	assert.Empty(t, u.PasswordHash)

	_, err := run(t, dir, "user", "add", "sara", "--password", "pw")
	require.ErrorIs(t, err, database.ErrDuplicate)

	_, err = run(t, dir, "user", "delete", "admin")
	require.ErrorIs(t, err, database.ErrValidation)

	mustRun(t, dir, "user", "passwd", "cashier", "--password", "new")

	mustRun(t, dir, "login", "cashier", "--password", "new")
	_, err = run(t, dir, "user", "passwd", "admin", "--password", "x")
	require.ErrorIs(t, err, middleware.ErrForbidden)
	mustRun(t, dir, "user", "passwd", "--password", "newer")
	mustRun(t, dir, "login", "cashier", "--password", "newer")
}

func TestSettingsCommands(t *testing.T) {
	dir := loggedIn(t, "admin")

	s := decode[models.Settings](t, mustRun(t, dir, "--format", "json",
		"settings", "set", "--currency", "EUR", "--shop-name", "Corner", "--auto-print"))
	assert.Equal(t, "EUR", s.Currency)
	assert.Equal(t, "Corner", s.ShopName)
	assert.Equal(t, models.DefaultSettings().Theme, s.Theme)
	require.NotNil(t, s.AutoPrint)
	assert.True(t, *s.AutoPrint)

	_, err := run(t, dir, "settings", "set", "--theme", "neon")
	require.ErrorIs(t, err, database.ErrValidation)

	out := mustRun(t, dir, "settings", "show")
	assert.Contains(t, out, "Corner")
}

func TestReportCommands(t *testing.T) {
	dir := loggedIn(t, "admin")
	p := decode[models.Product](t, mustRun(t, dir, "--format", "json",
		"product", "add", "--name", "Cigar", "--brand", "Cohiba", "--price", "30", "--stock", "4"))
	mustRun(t, dir, "sale", "record", "--item", p.ID+":2", "--method", "Card")

	data := decode[handlers.ReportData](t, mustRun(t, dir, "--format", "json", "report", "sales"))
	assert.Equal(t, 1, data.Summary.Count)
	assert.InDelta(t, 60, data.Summary.Revenue, 1e-9)
	require.NotEmpty(t, data.TopSelling)
	assert.Equal(t, "Cigar", data.TopSelling[0].Name)

	summary := decode[reports.SalesSummary](t, mustRun(t, dir, "--format", "json", "report", "summary"))
	assert.InDelta(t, 60, summary.Average, 1e-9)
	assert.Contains(t, mustRun(t, dir, "report", "top"), "Cigar")
	assert.Contains(t, mustRun(t, dir, "report", "payments"), "Card")

	out := mustRun(t, dir, "report", "valuation")
	assert.Contains(t, out, "Cohiba")

	out = mustRun(t, dir, "report", "dashboard")
	assert.Contains(t, out, "60.00")

	mustRun(t, dir, "report", "alerts")

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	mustRun(t, dir, "report", "export", path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, dir, "report", "sales", "--from", "17/04/2026")
	require.ErrorIs(t, err, database.ErrValidation)
}

func TestParseItem(t *testing.T) {
	id, qty, err := parseItem("abc:3")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, 3, qty)

	id, qty, err = parseItem("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, 1, qty)

	_, _, err = parseItem(":2")
	require.ErrorIs(t, err, database.ErrValidation)
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 4, 17, 15, 0, 0, 0, time.Local)

	from, to, err := parseRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 17, 0, 0, 0, 0, time.Local), from)
	assert.Equal(t, from, to)

	from, to, err = parseRange("2026-04-01", "2026-04-30", now)
	require.NoError(t, err)
	assert.Equal(t, 1, from.Day())
	assert.Equal(t, 30, to.Day())

	_, _, err = parseRange("2026-04-30", "2026-04-01", now)
	require.ErrorIs(t, err, database.ErrValidation)
}
