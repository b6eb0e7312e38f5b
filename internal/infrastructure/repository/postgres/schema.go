package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaLockKey int64 = 2026101801

// EnsureSchema creates the subset of the ERP tables the intake reads and
// writes. Production databases already have them; this is for local and
// integration environments.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS tbl_clientes (
	cod_empresa INTEGER NOT NULL,
	codigo TEXT NOT NULL,
	nombre_comercial TEXT NOT NULL,
	PRIMARY KEY (cod_empresa, codigo)
);

CREATE TABLE IF NOT EXISTS tbl_articulos (
	cod_empresa INTEGER NOT NULL,
	codigo TEXT NOT NULL,
	nombre_idioma_1 TEXT NOT NULL,
	cod_subfamilia TEXT,
	PRIMARY KEY (cod_empresa, codigo)
);

CREATE TABLE IF NOT EXISTS tbl_rutas_clientes (
	cod_cliente TEXT NOT NULL,
	cod_ruta INTEGER NOT NULL,
	PRIMARY KEY (cod_cliente, cod_ruta)
);

CREATE TABLE IF NOT EXISTS tbl_pedidos_venta_cab (
	id BIGINT NOT NULL,
	cod_empresa INTEGER NOT NULL,
	cod_serie TEXT NOT NULL,
	num_pedido BIGINT NOT NULL,
	anyo INTEGER NOT NULL,
	fecha_pedido DATE NOT NULL,
	fecha_entrega DATE NOT NULL,
	servido INTEGER NOT NULL DEFAULT 0,
	bloqueado INTEGER NOT NULL DEFAULT 0,
	cod_cliente TEXT NOT NULL,
	num_bultos INTEGER,
	pronto_pago NUMERIC(12,4),
	dto NUMERIC(12,4),
	portes NUMERIC(12,4),
	iva_portes NUMERIC(12,4),
	re_portes NUMERIC(12,4),
	gastos_financieros NUMERIC(12,4),
	aplicar_gastos_fin TEXT,
	irpf NUMERIC(12,4),
	regimen_irpf TEXT,
	aplicar_re INTEGER,
	cod_tarifa INTEGER,
	cod_almacen TEXT,
	cod_forma_pago TEXT,
	cod_representante INTEGER,
	cod_ruta TEXT,
	cod_divisa TEXT,
	dg_cod_banco TEXT,
	dg_oficina TEXT,
	dg_dc TEXT,
	dg_num_cuenta TEXT,
	dg_iban TEXT,
	dg_bic TEXT,
	aplicar_fianza INTEGER,
	fianza NUMERIC(12,4),
	importe_fianza NUMERIC(12,4),
	imprimir_cod_articulo INTEGER,
	imprimir_total_seccion INTEGER,
	imprimir_precios INTEGER,
	imprimir_valoracion INTEGER,
	fecha_creacion DATE,
	hora_creacion TEXT,
	usuario_creacion TEXT,
	PRIMARY KEY (cod_empresa, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_pedidos_venta_cab_numero
	ON tbl_pedidos_venta_cab(cod_empresa, cod_serie, num_pedido);

CREATE TABLE IF NOT EXISTS tbl_pedidos_venta_lin (
	id BIGINT NOT NULL,
	id_pedido BIGINT NOT NULL,
	num_linea INTEGER NOT NULL,
	cod_empresa INTEGER NOT NULL,
	cod_articulo TEXT NOT NULL,
	descripcion TEXT NOT NULL,
	cod_seccion TEXT,
	cod_marca TEXT,
	iva_incluido INTEGER,
	iva NUMERIC(12,4),
	re NUMERIC(12,4),
	dto NUMERIC(12,4),
	precio_compra NUMERIC(12,4),
	precio_venta NUMERIC(12,4),
	precio_venta_sin_iva NUMERIC(12,4),
	precio_venta_con_iva NUMERIC(12,4),
	cantidad_pedida NUMERIC(12,3) NOT NULL,
	cantidad_servida NUMERIC(12,3),
	comision NUMERIC(12,4),
	estilo_cursiva INTEGER,
	estilo_negrita INTEGER,
	estilo_subrayado INTEGER,
	fecha_creacion DATE,
	hora_creacion TEXT,
	usuario_creacion TEXT,
	PRIMARY KEY (cod_empresa, id)
);

CREATE INDEX IF NOT EXISTS idx_pedidos_venta_lin_pedido ON tbl_pedidos_venta_lin(id_pedido);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
