package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Spok95/buildmat/internal/config"
	"github.com/Spok95/buildmat/internal/domain/customers"
	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/reports"
	"github.com/Spok95/buildmat/internal/domain/sales"
	"github.com/Spok95/buildmat/internal/domain/suppliers"
	"github.com/Spok95/buildmat/internal/infra/db"
	"github.com/Spok95/buildmat/internal/infra/logger"
)

// CLI держит общее для всех подкоманд: конфиг, логгер и пул соединений,
// который открывается при первом обращении к базе.
type CLI struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	loadConfig func(path string) (config.Config, error)
	connect    func(ctx context.Context, dsn string) (db.Pool, func(), error)
	migrate    func(dsn string) error
	now        func() time.Time

	configPath string
	cfg        config.Config
	log        *slog.Logger

	pool      db.Pool
	closePool func()
}

type Option func(*CLI)

func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(c *CLI) { c.in, c.out, c.errOut = in, out, errOut }
}

// WithConfig подставляет готовый конфиг вместо чтения файла.
func WithConfig(cfg config.Config) Option {
	return func(c *CLI) {
		c.loadConfig = func(string) (config.Config, error) { return cfg, nil }
	}
}

// WithPool подставляет уже открытый пул (в тестах это pgxmock).
func WithPool(p db.Pool) Option {
	return func(c *CLI) {
		c.connect = func(context.Context, string) (db.Pool, func(), error) { return p, func() {}, nil }
	}
}

func WithMigrator(fn func(dsn string) error) Option {
	return func(c *CLI) { c.migrate = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *CLI) { c.now = now }
}

func New(opts ...Option) *CLI {
	c := &CLI{
		in:         os.Stdin,
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: config.Load,
		connect:    connectPool,
		migrate:    db.Migrate,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func connectPool(ctx context.Context, dsn string) (db.Pool, func(), error) {
	p, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

func (c *CLI) Config() config.Config { return c.cfg }
func (c *CLI) Logger() *slog.Logger  { return c.log }

// Root собирает дерево команд. Команды, которым нужен сервер (serve),
// добавляются снаружи.
func (c *CLI) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "buildmat",
		Short:         "Inventory and sales for a building-materials business",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to YAML config")

	root.AddCommand(
		c.reportCmd(),
		c.dashboardCmd(),
		c.lowStockCmd(),
		c.saleCmd(),
		c.salesCmd(),
		c.customersCmd(),
		c.suppliersCmd(),
		c.materialsCmd(),
		c.migrateCmd(),
		c.seedCmd(),
		c.shellCmd(),
	)
	return root
}

func (c *CLI) init() error {
	cfg, err := c.loadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	// в CLI stdout занят таблицами, поэтому логи идут в stderr
	level := cfg.App.LogLevel
	if level == "" && cfg.App.Env != "dev" {
		level = "warn"
	}
	c.log = logger.NewWithWriter(c.errOut, cfg.App.Env, level)
	return nil
}

func (c *CLI) db(ctx context.Context) (db.Pool, error) {
	if c.pool != nil {
		return c.pool, nil
	}
	p, closeFn, err := c.connect(ctx, c.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	c.pool, c.closePool = p, closeFn
	return p, nil
}

// Execute запускает root и закрывает пул при любом исходе команды,
// в том числе когда RunE вернул ошибку.
func (c *CLI) Execute(ctx context.Context, root *cobra.Command) error {
	defer c.Close()
	return root.ExecuteContext(ctx)
}

// Close освобождает пул, если он был открыт.
func (c *CLI) Close() {
	if c.closePool != nil {
		c.closePool()
	}
	c.pool, c.closePool = nil, nil
}

// clock: текущее время в часовом поясе из конфига.
func (c *CLI) clock() func() time.Time {
	loc, err := c.cfg.Location()
	if err != nil {
		loc = time.Local
	}
	return func() time.Time { return c.now().In(loc) }
}

type services struct {
	customers *customers.Repo
	suppliers *suppliers.Repo
	materials *materials.Repo
	sales     *sales.Repo
	reports   *reports.Repo
	recorder  *sales.Recorder
}

func (c *CLI) services(ctx context.Context) (*services, error) {
	p, err := c.db(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()
	return &services{
		customers: customers.NewRepo(p),
		suppliers: suppliers.NewRepo(p),
		materials: materials.NewRepo(p),
		sales:     sales.NewRepo(p),
		reports:   reports.NewRepo(p, now),
		recorder: sales.NewRecorder(p, c.log,
			sales.WithCustomerCheck(c.cfg.Sales.RequireCustomer),
			sales.WithClock(now),
		),
	}, nil
}

// table печатает выровненную таблицу с заголовком.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	seps := make([]string, len(header))
	for i, h := range header {
		seps[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(seps, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// optDecimal разбирает необязательный денежный флаг: пустая строка значит "не задан".
func optDecimal(name, s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not a number", name, s)
	}
	return &d, nil
}

// isUserError: ошибки ввода: печатаются, но код выхода остаётся 0.
func isUserError(err error) bool {
	return errors.Is(err, reports.ErrInvalidDate) ||
		errors.Is(err, reports.ErrInvalidRange) ||
		errors.Is(err, reports.ErrInvalidDays) ||
		errors.Is(err, reports.ErrInvalidLimit)
}

// report печатает ошибку ввода в stderr и гасит её.
func (c *CLI) report(err error) error {
	if err != nil && isUserError(err) {
		fmt.Fprintln(c.errOut, err)
		return nil
	}
	return err
}
