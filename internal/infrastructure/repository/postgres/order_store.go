package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/resilience"
)

// orderLockClass namespaces the two-key advisory lock that serializes ID
// allocation per partition.
const orderLockClass int32 = 20261018

type OrderStoreOptions struct {
	AttemptTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

type OrderStore struct {
	db             *sql.DB
	attemptTimeout time.Duration
	executor       *resilience.Executor
}

func NewOrderStore(db *sql.DB, options OrderStoreOptions) *OrderStore {
	timeout := options.AttemptTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OrderStore{
		db:             db,
		attemptTimeout: timeout,
		executor:       options.ResilienceExecutor,
	}
}

// WithinTx runs fn in a transaction that first takes the partition's
// allocation lock. Any failure rolls back the whole attempt; transient
// failures rerun fn from scratch on a new transaction.
func (s *OrderStore) WithinTx(ctx context.Context, partition int, fn func(ctx context.Context, tx ports.OrderTx) error) error {
	call := func(ctx context.Context) error {
		return s.attempt(ctx, partition, fn)
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "orders.write", call, classifyWriteError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded("orders.write", err)
	}
	return nil
}

// attempt bounds one transaction by the attempt timeout. When that timeout,
// not the caller, ended the attempt, the failure is marked ErrTemporary.
func (s *OrderStore) attempt(ctx context.Context, partition int, fn func(ctx context.Context, tx ports.OrderTx) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	err := s.runTx(attemptCtx, partition, fn)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTemporary, "orders.write attempt timeout", err)
	}
	return err
}

func (s *OrderStore) runTx(attemptCtx context.Context, partition int, fn func(ctx context.Context, tx ports.OrderTx) error) error {
	tx, err := s.db.BeginTx(attemptCtx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(attemptCtx, `SELECT pg_advisory_xact_lock($1, $2)`, orderLockClass, int32(partition)); err != nil {
		return fmt.Errorf("acquire order allocation lock: %w", err)
	}

	if err := fn(attemptCtx, &orderTx{tx: tx, partition: partition}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if isTransient(err) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

type orderTx struct {
	tx        *sql.Tx
	partition int
}

func (t *orderTx) NextHeaderID(ctx context.Context) (int64, error) {
	return t.nextValue(ctx, "next header id",
		`SELECT COALESCE(MAX(id), 0) + 1 FROM tbl_pedidos_venta_cab WHERE cod_empresa = $1`,
		t.partition)
}

func (t *orderTx) NextLineID(ctx context.Context) (int64, error) {
	return t.nextValue(ctx, "next line id",
		`SELECT COALESCE(MAX(id), 0) + 1 FROM tbl_pedidos_venta_lin WHERE cod_empresa = $1`,
		t.partition)
}

func (t *orderTx) NextOrderNumber(ctx context.Context, seriesCode string) (int64, error) {
	return t.nextValue(ctx, "next order number",
		`SELECT COALESCE(MAX(num_pedido), 0) + 1 FROM tbl_pedidos_venta_cab WHERE cod_empresa = $1 AND cod_serie = $2`,
		t.partition, seriesCode)
}

func (t *orderTx) nextValue(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	var next int64
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return next, nil
}

func (t *orderTx) InsertHeader(ctx context.Context, h domain.OrderHeader) error {
	d := h.Defaults
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO tbl_pedidos_venta_cab (
	id, cod_empresa, cod_serie, num_pedido, anyo, fecha_pedido, fecha_entrega, servido, bloqueado, cod_cliente,
	num_bultos, pronto_pago, dto, portes, iva_portes, re_portes, gastos_financieros, aplicar_gastos_fin, irpf, regimen_irpf,
	aplicar_re, cod_tarifa, cod_almacen, cod_forma_pago, cod_representante, cod_ruta, cod_divisa, dg_cod_banco, dg_oficina, dg_dc,
	dg_num_cuenta, dg_iban, dg_bic, aplicar_fianza, fianza, importe_fianza, imprimir_cod_articulo, imprimir_total_seccion, imprimir_precios, imprimir_valoracion,
	fecha_creacion, hora_creacion, usuario_creacion
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
	$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
	$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,
	$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,
	$41,$42,$43
)`,
		h.ID, h.Partition, h.SeriesCode, h.OrderNumber, h.Year, dateOnly(h.OrderDate), dateOnly(h.DeliveryDate), d.Served, d.Blocked, h.ClientCode,
		d.Packages, d.EarlyPaymentDiscount, d.Discount, d.Shipping, d.ShippingVAT, d.ShippingSurcharge, d.FinancialCosts, d.ApplyFinancialCosts, d.IncomeTax, d.IncomeTaxRegime,
		d.ApplySurcharge, d.RateCode, d.WarehouseCode, d.PaymentMethodCode, d.SalesRepCode, d.RouteCode, d.CurrencyCode, d.BankCode, d.BankBranch, d.BankCheckDigits,
		d.BankAccount, d.IBAN, d.BIC, d.ApplyDeposit, d.Deposit, d.DepositAmount, d.PrintArticleCode, d.PrintSectionTotal, d.PrintPrices, d.PrintValuation,
		dateOnly(h.CreatedAt), h.CreatedAt.Format(time.TimeOnly), d.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert order header: %w", err)
	}
	return nil
}

func (t *orderTx) InsertLine(ctx context.Context, l domain.OrderLine) error {
	d := l.Defaults
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO tbl_pedidos_venta_lin (
	id, id_pedido, num_linea, cod_empresa, cod_articulo, descripcion, cod_seccion, cod_marca, iva_incluido, iva,
	re, dto, precio_compra, precio_venta, precio_venta_sin_iva, precio_venta_con_iva, cantidad_pedida, cantidad_servida, comision, estilo_cursiva,
	estilo_negrita, estilo_subrayado, fecha_creacion, hora_creacion, usuario_creacion
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
	$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
	$21,$22,$23,$24,$25
)`,
		l.ID, l.HeaderID, l.Position, l.Partition, l.ArticleCode, l.Description, d.SectionCode, d.BrandCode, d.VATIncluded, d.VAT,
		d.Surcharge, d.Discount, d.PurchasePrice, d.SalePrice, d.SalePriceExVAT, d.SalePriceIncVAT, l.Quantity, d.ServedQuantity, d.Commission, d.Italic,
		d.Bold, d.Underline, dateOnly(l.CreatedAt), l.CreatedAt.Format(time.TimeOnly), d.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}
