package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLoadClientsExcludesArchivedAndBlankNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT codigo, nombre_comercial FROM tbl_clientes WHERE cod_empresa = \\$1 AND nombre_comercial NOT LIKE \\$2").
		WithArgs(100, "Z %").
		WillReturnRows(sqlmock.NewRows([]string{"codigo", "nombre_comercial"}).
			AddRow("C1 ", " Acme Store Ltd ").
			AddRow("C2", nil).
			AddRow("C3", "Bar Pepe"))

	loader := NewCatalogLoader(db, 100, "Z %")
	got, err := loader.LoadClients(context.Background())
	if err != nil {
		t.Fatalf("LoadClients() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 clients, got %+v", got)
	}
	if got[0].Code != "C1" || got[0].DisplayName != "Acme Store Ltd" {
		t.Fatalf("unexpected first client: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadClientsWithoutExcludePattern(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT codigo, nombre_comercial FROM tbl_clientes WHERE cod_empresa = \\$1 ORDER BY codigo").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"codigo", "nombre_comercial"}).AddRow("C9", "Z Old Client"))

	got, err := NewCatalogLoader(db, 100, "  ").LoadClients(context.Background())
	if err != nil {
		t.Fatalf("LoadClients() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 client, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadArticlesWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	errDown := errors.New("db down")
	mock.ExpectQuery("SELECT codigo, nombre_idioma_1").
		WithArgs(100).
		WillReturnError(errDown)

	_, err = NewCatalogLoader(db, 100, "").LoadArticles(context.Background())
	if !errors.Is(err, errDown) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
