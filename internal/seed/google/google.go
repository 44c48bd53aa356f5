// Package google loads the initial ledger from a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/seed"
)

const (
	DefaultTransactionsSheet = "Transacoes"
	DefaultCategoriesSheet   = "Categorias"

	transactionsRange = "A:G"
	categoriesRange   = "A:A"
)

// Config identifies the spreadsheet and the credentials used to read it.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	CategoriesSheet   string
	CredentialsJSON   string
	CredentialsFile   string
}

type Client struct {
	svc    *gsheet.Service
	cfg    Config
	logger *log.Logger
}

var _ seed.Source = (*Client)(nil)

// New creates a read-only Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if cfg.TransactionsSheet == "" {
		cfg.TransactionsSheet = DefaultTransactionsSheet
	}
	if cfg.CategoriesSheet == "" {
		cfg.CategoriesSheet = DefaultCategoriesSheet
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{svc: svc, cfg: cfg, logger: logger.WithComponent(log.ComponentSheets)}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// Load reads both sheets concurrently. Rows that cannot be parsed are
// skipped and logged.
func (c *Client) Load(ctx context.Context) (seed.Data, error) {
	var txRows, catRows [][]interface{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txRows, err = c.read(gctx, c.cfg.TransactionsSheet, transactionsRange)
		return err
	})
	g.Go(func() error {
		var err error
		catRows, err = c.read(gctx, c.cfg.CategoriesSheet, categoriesRange)
		return err
	})
	if err := g.Wait(); err != nil {
		return seed.Data{}, err
	}

	txs, skipped := parseTransactions(txRows)
	for _, s := range skipped {
		c.logger.WarnContext(ctx, "Skipping malformed row",
			log.FieldOperation, log.OpParse, "row", s.Row, log.FieldError, s.Err.Error())
	}
	cats := parseCategories(catRows)
	if len(cats) == 0 {
		cats = core.DefaultCategories()
	}

	c.logger.InfoContext(ctx, "Loaded spreadsheet",
		log.FieldOperation, log.OpLoad, log.FieldCount, len(txs), "categories", len(cats), "skipped", len(skipped))

	d := seed.Data{Transactions: txs, Categories: cats}
	return d, d.Validate()
}

func (c *Client) read(ctx context.Context, sheet, cols string) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
