package documents

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/hesabu-biz/hesabu/internal/docgen/compose"
	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
	"github.com/hesabu-biz/hesabu/internal/docgen/money"
	"github.com/hesabu-biz/hesabu/internal/docgen/pdf"
	"github.com/hesabu-biz/hesabu/internal/inventory"
	"github.com/hesabu-biz/hesabu/internal/platform/httpx"
	"github.com/hesabu-biz/hesabu/internal/sales/customers"
)

// CustomerDirectory resolves the customer a document bills.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// ProductCatalog resolves catalog defaults for lines built from stock.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (*inventory.Product, error)
}

// NumberSource hands out and previews document numbers. Satisfied by
// *docnum.Service.
type NumberSource interface {
	GetNext(ctx context.Context, t docnum.DocType) (docnum.DocumentNumber, error)
	PeekNext(ctx context.Context, t docnum.DocType) (docnum.DocumentNumber, error)
}

type Service struct {
	repo      Repository
	customers CustomerDirectory
	products  ProductCatalog
	numbers   NumberSource

	renderCfg  compose.Config
	defaultTax float64
	logger     *slog.Logger

	// renders collapses concurrent PDF requests for the same document
	// into a single composition.
	renders singleflight.Group

	now func() time.Time
}

// NewService wires the document lifecycle. defaultTaxRate applies to
// drafts that do not set their own rate.
func NewService(repo Repository, dir CustomerDirectory, cat ProductCatalog, numbers NumberSource, renderCfg compose.Config, defaultTaxRate float64, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		customers:  dir,
		products:   cat,
		numbers:    numbers,
		renderCfg:  renderCfg,
		defaultTax: defaultTaxRate,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	t := docnum.DocType(req.Type)
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown document type %q", money.ErrValidation, req.Type)
	}
	if _, err := s.customers.Get(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("customer %d: %w", req.CustomerID, err)
	}
	lines, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	if req.IssuedDate != nil {
		issued = *req.IssuedDate
	}
	taxRate := s.defaultTax
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	var freightRate float64
	if req.FreightRatePerKg != nil {
		freightRate = *req.FreightRatePerKg
	}

	doc := &Document{
		PublicID:   uuid.New(),
		Type:       t,
		Status:     StatusDraft,
		CustomerID: req.CustomerID,
		IssuedDate: issued,
		DueDate:    req.DueDate,
		ValidUntil: req.ValidUntil,

		TaxRate:          taxRate,
		FreightRatePerKg: freightRate,

		CurrencyCode: req.CurrencyCode,
		CurrencyRate: req.CurrencyRate,

		ClientResponsibilities: req.ClientResponsibilities,
		TermsAndConditions:     req.TermsAndConditions,

		Lines: lines,
	}

	id, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateDocumentRequest) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.Editable() {
		return nil, fmt.Errorf("%w: document %s is finalized", httpx.ErrConflict, doc.ReferenceID())
	}

	if req.CustomerID != nil {
		if _, err := s.customers.Get(ctx, *req.CustomerID); err != nil {
			return nil, fmt.Errorf("customer %d: %w", *req.CustomerID, err)
		}
		doc.CustomerID = *req.CustomerID
	}
	if req.IssuedDate != nil {
		doc.IssuedDate = *req.IssuedDate
	}
	if req.DueDate != nil {
		doc.DueDate = req.DueDate
	}
	if req.ValidUntil != nil {
		doc.ValidUntil = req.ValidUntil
	}
	if req.TaxRate != nil {
		doc.TaxRate = *req.TaxRate
	}
	if req.FreightRatePerKg != nil {
		doc.FreightRatePerKg = *req.FreightRatePerKg
	}
	if req.CurrencyCode != nil {
		doc.CurrencyCode = req.CurrencyCode
	}
	if req.CurrencyRate != nil {
		doc.CurrencyRate = req.CurrencyRate
	}
	if req.ClientResponsibilities != nil {
		doc.ClientResponsibilities = req.ClientResponsibilities
	}
	if req.TermsAndConditions != nil {
		doc.TermsAndConditions = req.TermsAndConditions
	}

	replaceLines := req.Lines != nil
	if replaceLines {
		lines, err := s.resolveLines(ctx, *req.Lines)
		if err != nil {
			return nil, err
		}
		doc.Lines = lines
	}

	if err := s.repo.UpdateDraft(ctx, doc, replaceLines); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	return s.repo.List(ctx, req)
}

// Finalize validates the draft, assigns its number and freezes the
// customer snapshot and totals. Validation runs before the number is
// requested so a rejected draft never consumes a sequence value. Stock
// is deducted for invoice lines linked to products, atomically with the
// status change.
func (s *Service) Finalize(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.Editable() {
		return nil, fmt.Errorf("%w: document %s is finalized", httpx.ErrConflict, doc.ReferenceID())
	}

	customer, err := s.customers.Get(ctx, doc.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %d: %w", doc.CustomerID, err)
	}
	bill := billTo(customer)

	composeDoc := buildComposeDocument(doc, bill, "")
	if err := compose.Validate(composeDoc); err != nil {
		return nil, err
	}

	freight := money.FreightFor(composeDoc.Items, doc.FreightRatePerKg)
	calc, err := money.NewCalculator(doc.TaxRate)
	if err != nil {
		return nil, err
	}
	totals, err := calc.Totals(composeDoc.Items, freight)
	if err != nil {
		return nil, err
	}

	number, err := s.numbers.GetNext(ctx, doc.Type)
	if err != nil {
		return nil, fmt.Errorf("assign document number: %w", err)
	}

	numberStr := number.String()
	doc.Number = &numberStr
	doc.CustomerName = &customer.Name
	doc.CustomerPhone = customer.Phone
	doc.CustomerEmail = customer.Email
	doc.CustomerAddress = customer.Address
	doc.CustomerKRAPin = customer.KRAPin
	doc.Subtotal = &totals.Subtotal
	doc.TaxAmount = &totals.TaxAmount
	doc.FreightAmount = &totals.FreightAmount
	doc.GrandTotal = &totals.GrandTotal

	var deductions []Deduction
	if doc.Type == docnum.TypeInvoice {
		for _, l := range doc.Lines {
			if l.ProductID != nil {
				deductions = append(deductions, Deduction{ProductID: *l.ProductID, Quantity: l.Quantity})
			}
		}
	}

	if err := s.repo.Finalize(ctx, doc, deductions); err != nil {
		return nil, fmt.Errorf("finalize document %s: %w", numberStr, err)
	}
	return s.repo.Get(ctx, id)
}

// Rendered is a composed PDF ready to stream or store.
type Rendered struct {
	Data     []byte
	Filename string
}

// Render composes the document into a PDF. Drafts render with a DRAFT
// watermark number; finalized documents use their frozen snapshot.
// Concurrent renders of the same document share one composition.
func (s *Service) Render(ctx context.Context, id int64) (*Rendered, error) {
	v, err, _ := s.renders.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return s.render(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Rendered), nil
}

func (s *Service) render(ctx context.Context, id int64) (*Rendered, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var bill compose.Customer
	if doc.Status == StatusFinalized {
		bill = snapshotBillTo(doc)
	} else {
		customer, err := s.customers.Get(ctx, doc.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", doc.CustomerID, err)
		}
		bill = billTo(customer)
	}

	var number string
	if doc.Number != nil {
		number = *doc.Number
	}
	composeDoc := buildComposeDocument(doc, bill, number)

	backend := pdf.New(pdf.Options{
		Margin:     s.renderCfg.Margin,
		LineHeight: s.renderCfg.LineHeight,
	})
	composer := compose.New(backend, s.renderCfg, s.logger)
	if _, err := composer.Compose(ctx, composeDoc); err != nil {
		return nil, fmt.Errorf("compose document %s: %w", doc.ReferenceID(), err)
	}

	var buf bytes.Buffer
	if err := backend.Output(&buf); err != nil {
		return nil, fmt.Errorf("emit pdf for document %s: %w", doc.ReferenceID(), err)
	}
	return &Rendered{
		Data:     buf.Bytes(),
		Filename: compose.Filename(s.renderCfg.Company.Name, doc.Type, doc.ReferenceID()),
	}, nil
}

// NextNumber previews the number the next finalization of t would get,
// without consuming it.
func (s *Service) NextNumber(ctx context.Context, docType string) (string, error) {
	t := docnum.DocType(docType)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown document type %q", money.ErrValidation, docType)
	}
	n, err := s.numbers.PeekNext(ctx, t)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// resolveLines merges catalog defaults into the requested lines. Rows
// without a product must carry their own name and price.
func (s *Service) resolveLines(ctx context.Context, inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		l := Line{
			ProductID:   in.ProductID,
			Description: in.Description,
			Quantity:    in.Quantity,
		}
		if in.ProductID != nil {
			p, err := s.products.Get(ctx, *in.ProductID)
			if err != nil {
				return nil, fmt.Errorf("line %d: product %d: %w", i+1, *in.ProductID, err)
			}
			l.Name = p.Name
			l.UnitPrice = p.UnitPrice
			l.WeightKg = p.WeightKg
			if l.Description == nil {
				l.Description = p.Description
			}
		}
		if in.Name != nil {
			l.Name = *in.Name
		}
		if in.UnitPrice != nil {
			l.UnitPrice = *in.UnitPrice
		}
		if in.WeightKg != nil {
			l.WeightKg = *in.WeightKg
		}
		if l.Name == "" {
			return nil, fmt.Errorf("%w: line %d needs a name or a product", money.ErrValidation, i+1)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func buildComposeDocument(doc *Document, bill compose.Customer, number string) compose.Document {
	items := make([]money.LineItem, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		items = append(items, money.LineItem{
			ID:          strconv.FormatInt(l.ID, 10),
			Name:        l.Name,
			Description: deref(l.Description),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			WeightKg:    l.WeightKg,
		})
	}

	var rate float64
	if doc.CurrencyRate != nil {
		rate = *doc.CurrencyRate
	}
	return compose.Document{
		ID:       doc.ReferenceID(),
		Type:     doc.Type,
		Number:   number,
		Customer: bill,
		Items:    items,

		IssuedDate: doc.IssuedDate,
		DueDate:    doc.DueDate,
		ValidUntil: doc.ValidUntil,

		TaxRate:     doc.TaxRate,
		FreightRate: doc.FreightRatePerKg,

		CurrencyCode: deref(doc.CurrencyCode),
		CurrencyRate: rate,

		ClientResponsibilities: deref(doc.ClientResponsibilities),
		TermsAndConditions:     deref(doc.TermsAndConditions),
	}
}

func billTo(c *customers.Customer) compose.Customer {
	return compose.Customer{
		Name:    c.Name,
		Phone:   deref(c.Phone),
		Email:   deref(c.Email),
		Address: deref(c.Address),
		KRAPin:  deref(c.KRAPin),
	}
}

func snapshotBillTo(d *Document) compose.Customer {
	return compose.Customer{
		Name:    deref(d.CustomerName),
		Phone:   deref(d.CustomerPhone),
		Email:   deref(d.CustomerEmail),
		Address: deref(d.CustomerAddress),
		KRAPin:  deref(d.CustomerKRAPin),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
