package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"

	"github.com/dfarias/examload/internal/config"
	"github.com/dfarias/examload/internal/db"
	"github.com/dfarias/examload/internal/export"
	"github.com/dfarias/examload/internal/ingest"
	"github.com/dfarias/examload/internal/logging"
	"github.com/dfarias/examload/internal/model"
)

const (
	testPort     = 15433
	testDB       = "examtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

var testPeriod = model.Period{Year: 2025, Month: time.June}

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB creates a connection pool and applies migrations on clean schemas.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, schema := range []string{"billing", "ingest", "ref"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}

	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

var fixtureHeader = []string{
	"CLIENTE", "PACIENTE", "DESCRICAO", "ACCESSION", "MODALIDADE",
	"PRIORIDADE", "VALOR", "ESPECIALIDADE", "MEDICO",
	"DATA REALIZACAO", "HORA REALIZACAO", "DATA LAUDO", "HORA LAUDO",
	"PRAZO", "STATUS",
}

// fixtureRow builds one spreadsheet row accepted by every rule for a June
// 2025 standard batch.
func fixtureRow(client, description, modality, priority, value, reportDate string) []string {
	return []string{
		client, "P0001", description, "ACC1", modality,
		priority, value, "", "DR SILVA",
		"15/05/2025", "08:00", reportDate, "12:00",
		reportDate, "LAUDADO",
	}
}

func writeFixture(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "volume.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(fixtureHeader))
	for i, h := range fixtureHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatal(err)
	}
	for i, data := range rows {
		cells := make([]interface{}, len(data))
		for j, c := range data {
			cells[j] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func seedMapping(t *testing.T, pool *pgxpool.Pool, kind, scope, source, target string, ordinal int) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO ref.mapping_entries (kind, scope, source_value, target_value, ordinal) VALUES ($1, $2, $3, $4, $5)",
		kind, scope, source, target, ordinal,
	)
	if err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func standardConfig(file string) *config.Config {
	return &config.Config{
		DSN:                 testDSN,
		FilePath:            file,
		SourceKind:          "standard",
		Period:              "2025-06",
		LogFormat:           "text",
		ChunkSize:           2,
		ValidationThreshold: 100,
		Kind:                model.KindStandard,
		BillingPeriod:       testPeriod,
	}
}

func TestEndToEnd_Commit(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	seedMapping(t, pool, "quebra", "", "EXAME COMPOSTO", "PARTE A", 0)
	seedMapping(t, pool, "quebra", "", "EXAME COMPOSTO", "PARTE B", 1)
	seedMapping(t, pool, "priority_depara", "", "PLANTAO", "URGENTE", 0)

	file := writeFixture(t, [][]string{
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "10/06/2025"),
		fixtureRow("CLINICA IMAGEM SUL", "TC CRANIO", "TC", "PLANTAO", "320,00", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "01/06/2025"),
		fixtureRow("CLINICA NORTE", "EXAME COMPOSTO", "TC", "ROTINA", "100,01", "10/06/2025"),
	})

	summary, err := ingest.Run(ctx, pool, log, standardConfig(file))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.RowsRead != 5 {
		t.Errorf("rows read: got %d, want 5", summary.RowsRead)
	}
	if summary.RowsAccepted != 4 { // 2 plain + 2 quebra children
		t.Errorf("rows accepted: got %d, want 4", summary.RowsAccepted)
	}
	if summary.RowsRejected != 2 {
		t.Errorf("rows rejected: got %d, want 2", summary.RowsRejected)
	}
	if summary.ValidationScore != 100 {
		t.Errorf("validation score: got %d, want 100", summary.ValidationScore)
	}

	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 4 {
		t.Errorf("fact rows: got %d, want 4", got)
	}
	if got := countRows(t, pool,
		"SELECT count(*) FROM ingest.rejected_rows WHERE reason_code = $1",
		model.ReasonSchemaInvalid); got != 1 {
		t.Errorf("schema rejections: got %d, want 1", got)
	}
	if got := countRows(t, pool,
		"SELECT count(*) FROM ingest.rejected_rows WHERE reason_code = $1",
		model.ReasonReportDateOutOfWindow); got != 1 {
		t.Errorf("window rejections: got %d, want 1", got)
	}

	// Staging cleared after commit.
	if got := countRows(t, pool, "SELECT count(*) FROM ingest.staging_rows"); got != 0 {
		t.Errorf("staging rows after cleanup: got %d, want 0", got)
	}

	// The quebra children conserve the parent value exactly.
	var childSum int64
	err = pool.QueryRow(ctx,
		"SELECT coalesce(sum(value_cents), 0) FROM billing.exam_records WHERE child_ordinal > 0").Scan(&childSum)
	if err != nil {
		t.Fatal(err)
	}
	if childSum != 10001 {
		t.Errorf("quebra children sum: got %d cents, want 10001", childSum)
	}

	// The urgent TC row grouped into the high-complexity sub-client and
	// classified as urgency (priority wins over modality).
	var client, billingType string
	err = pool.QueryRow(ctx,
		"SELECT client_name, billing_type FROM billing.exam_records WHERE modality = 'CT' AND child_ordinal = 0").
		Scan(&client, &billingType)
	if err != nil {
		t.Fatal(err)
	}
	if client != "CLINICA IMAGEM SUL - ALTA COMPLEXIDADE" {
		t.Errorf("grouped client: got %q", client)
	}
	if billingType != model.BillingUrgency {
		t.Errorf("billing type: got %s, want %s", billingType, model.BillingUrgency)
	}

	var status string
	if err := pool.QueryRow(ctx,
		"SELECT status FROM ingest.upload_batches WHERE batch_id = $1", summary.BatchID).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != string(model.BatchCommitted) {
		t.Errorf("batch status: got %s, want committed", status)
	}
}

func TestEndToEnd_DuplicateAndForce(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	file := writeFixture(t, [][]string{
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X JOELHO", "CR", "ROTINA", "40,00", "10/06/2025"),
	})

	cfg := standardConfig(file)
	first, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Same file again: skipped, nothing changes.
	second, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.BatchID != first.BatchID {
		t.Errorf("duplicate run got a new batch id")
	}
	if second.Chunks != 0 {
		t.Errorf("duplicate run processed %d chunks", second.Chunks)
	}
	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 2 {
		t.Errorf("fact rows after duplicate run: got %d, want 2", got)
	}

	// Forced re-run replaces, never duplicates.
	cfg.Force = true
	third, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if third.BatchID != first.BatchID {
		t.Errorf("forced run should reuse the batch id")
	}
	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 2 {
		t.Errorf("fact rows after forced re-run: got %d, want 2", got)
	}
	if third.RowsAccepted != 2 {
		t.Errorf("forced run accepted: got %d, want 2", third.RowsAccepted)
	}
}

func TestResumeAfterInterruption(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	file := writeFixture(t, [][]string{
		fixtureRow("CLIENTE UM", "RAIO X TORAX", "CR", "ROTINA", "10,00", "10/06/2025"),
		fixtureRow("CLIENTE DOIS", "RAIO X TORAX", "CR", "ROTINA", "20,00", "10/06/2025"),
		fixtureRow("CLIENTE TRES", "RAIO X TORAX", "CR", "ROTINA", "30,00", "10/06/2025"),
		fixtureRow("CLIENTE QUATRO", "RAIO X TORAX", "CR", "ROTINA", "40,00", "10/06/2025"),
		fixtureRow("CLIENTE CINCO", "RAIO X TORAX", "CR", "ROTINA", "50,00", "10/06/2025"),
	})

	// Simulate an interrupted run: one chunk, then stop.
	ref, err := ingest.StartBatch(ctx, pool, log, file, model.KindStandard, testPeriod, false)
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	result, err := ingest.ProcessChunk(ctx, pool, log, ref.ID, 2)
	if err != nil {
		t.Fatalf("ProcessChunk: %v", err)
	}
	if result.NextStartRow == nil || *result.NextStartRow != 2 {
		t.Fatalf("cursor after first chunk: %v", result.NextStartRow)
	}
	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 2 {
		t.Fatalf("fact rows after first chunk: got %d, want 2", got)
	}

	// A fresh Run over the same file picks up from the stored cursor.
	summary, err := ingest.Run(ctx, pool, log, standardConfig(file))
	if err != nil {
		t.Fatalf("resumed Run: %v", err)
	}
	if summary.BatchID != ref.ID.String() {
		t.Errorf("resume created a new batch")
	}
	if summary.RowsRead != 5 {
		t.Errorf("rows read after resume: got %d, want 5", summary.RowsRead)
	}
	if summary.RowsAccepted != 5 {
		t.Errorf("rows accepted after resume: got %d, want 5", summary.RowsAccepted)
	}
	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 5 {
		t.Errorf("fact rows after resume: got %d, want 5", got)
	}
}

func TestAbortBetweenChunks(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	file := writeFixture(t, [][]string{
		fixtureRow("CLIENTE UM", "RAIO X TORAX", "CR", "ROTINA", "10,00", "10/06/2025"),
		fixtureRow("CLIENTE DOIS", "RAIO X TORAX", "CR", "ROTINA", "20,00", "10/06/2025"),
	})

	ref, err := ingest.StartBatch(ctx, pool, log, file, model.KindStandard, testPeriod, false)
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}

	requested, err := ingest.RequestAbort(ctx, pool, ref.ID)
	if err != nil || !requested {
		t.Fatalf("RequestAbort: %v (requested=%v)", err, requested)
	}

	if _, err := ingest.ProcessChunk(ctx, pool, log, ref.ID, 1); !errors.Is(err, ingest.ErrBatchAborted) {
		t.Fatalf("expected ErrBatchAborted, got %v", err)
	}
	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 0 {
		t.Errorf("aborted batch wrote %d fact rows", got)
	}
}

func TestRollbackKeepsRejections(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	file := writeFixture(t, [][]string{
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "", "10/06/2025"),
	})

	summary, err := ingest.Run(ctx, pool, log, standardConfig(file))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	batchID := summary.BatchID
	removed, err := ingest.Rollback(ctx, pool, log, mustUUID(t, batchID), "operator requested")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if removed != 1 {
		t.Errorf("rows removed: got %d, want 1", removed)
	}

	if got := countRows(t, pool, "SELECT count(*) FROM billing.exam_records"); got != 0 {
		t.Errorf("fact rows after rollback: got %d, want 0", got)
	}
	// The audit trail outlives the rolled back data.
	if got := countRows(t, pool, "SELECT count(*) FROM ingest.rejected_rows"); got != 1 {
		t.Errorf("rejections after rollback: got %d, want 1", got)
	}

	var status, reason string
	if err := pool.QueryRow(ctx,
		"SELECT status, coalesce(failure_reason, '') FROM ingest.upload_batches WHERE batch_id = $1",
		batchID).Scan(&status, &reason); err != nil {
		t.Fatal(err)
	}
	if status != string(model.BatchRolledBack) {
		t.Errorf("status: got %s, want rolled_back", status)
	}
	if reason != "operator requested" {
		t.Errorf("reason: got %q", reason)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	file := writeFixture(t, [][]string{
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X JOELHO", "CR", "ROTINA", "40,00", "10/06/2025"),
	})

	summary, err := ingest.Run(ctx, pool, log, standardConfig(file))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	batchID := mustUUID(t, summary.BatchID)

	// Push one committed row outside the report window behind the
	// pipeline's back.
	if _, err := pool.Exec(ctx,
		"UPDATE billing.exam_records SET reported_at = '2020-01-01' WHERE batch_id = $1 AND row_number = 1",
		batchID); err != nil {
		t.Fatal(err)
	}

	report, err := ingest.Validate(ctx, pool, log, batchID, 100)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Ok {
		t.Fatal("validation should fail on the corrupted row")
	}
	if len(report.FailedChecks) != 1 || report.FailedChecks[0] != "temporal_window_conformity" {
		t.Errorf("failed checks: %v", report.FailedChecks)
	}
	if report.Score != 66 {
		t.Errorf("score: got %d, want 66", report.Score)
	}
}

func TestReapplyUpdatesDerivedFields(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	cardio := fixtureRow("CLINICA NORTE", "TC CORACAO", "TC", "ROTINA", "120,00", "10/06/2025")
	cardio[7] = "CARDIOLOGIA" // operator-provided specialty
	file := writeFixture(t, [][]string{
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X JOELHO", "CR", "ROTINA", "40,00", "10/06/2025"),
		cardio,
	})

	if _, err := ingest.Run(ctx, pool, log, standardConfig(file)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The mapping lands after the batch committed; reapply folds it in.
	seedMapping(t, pool, "client_depara", "", "CLINICA NORTE", "CLINICA NORTE MATRIZ", 0)

	res, err := ingest.Reapply(ctx, pool, log, model.KindStandard, testPeriod)
	if err != nil {
		t.Fatalf("Reapply: %v", err)
	}
	if res.RowsScanned != 3 {
		t.Errorf("rows scanned: got %d, want 3", res.RowsScanned)
	}
	if res.RowsUpdated != 3 {
		t.Errorf("rows updated: got %d, want 3", res.RowsUpdated)
	}

	if got := countRows(t, pool,
		"SELECT count(*) FROM billing.exam_records WHERE client_name = 'CLINICA NORTE MATRIZ'"); got != 3 {
		t.Errorf("remapped fact rows: got %d, want 3", got)
	}
	// Raw fields stay untouched.
	if got := countRows(t, pool,
		"SELECT count(*) FROM billing.exam_records WHERE client_raw = 'CLINICA NORTE'"); got != 3 {
		t.Errorf("raw client preserved: got %d, want 3", got)
	}
	// An operator-provided specialty is a raw input; reapply keeps it
	// rather than re-inferring from the modality.
	var specialty string
	if err := pool.QueryRow(ctx,
		"SELECT specialty FROM billing.exam_records WHERE study_description = 'TC CORACAO'").Scan(&specialty); err != nil {
		t.Fatal(err)
	}
	if specialty != "CARDIOLOGIA" {
		t.Errorf("operator specialty after reapply: got %q, want CARDIOLOGIA", specialty)
	}

	var pseudoStatus string
	if err := pool.QueryRow(ctx,
		"SELECT status FROM ingest.upload_batches WHERE batch_id = $1",
		res.PseudoBatchID).Scan(&pseudoStatus); err != nil {
		t.Fatal(err)
	}
	if pseudoStatus != string(model.BatchCommitted) {
		t.Errorf("pseudo-batch status: got %s", pseudoStatus)
	}
}

func TestExportRejections(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	file := writeFixture(t, [][]string{
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "N/A", "10/06/2025"),
		fixtureRow("CLINICA NORTE", "RAIO X TORAX", "CR", "ROTINA", "45,00", "01/01/2020"),
	})

	summary, err := ingest.Run(ctx, pool, log, standardConfig(file))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	batchID := mustUUID(t, summary.BatchID)

	out := filepath.Join(t.TempDir(), "rejections.xlsx")
	n, err := export.Rejections(ctx, pool, log, batchID, out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d rejections, want 2", n)
	}

	xf, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer xf.Close()
	rows, err := xf.GetRows(xf.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 { // header + 2 rejections
		t.Fatalf("export rows: got %d, want 3", len(rows))
	}
	if rows[1][2] != model.ReasonSchemaInvalid {
		t.Errorf("first rejection reason: got %s", rows[1][2])
	}
	if rows[2][2] != model.ReasonReportDateOutOfWindow {
		t.Errorf("second rejection reason: got %s", rows[2][2])
	}

	// Parquet flavor of the same report.
	pqOut := filepath.Join(t.TempDir(), "rejections.parquet")
	if _, err := export.Rejections(ctx, pool, log, batchID, pqOut); err != nil {
		t.Fatalf("parquet export: %v", err)
	}
	if st, err := os.Stat(pqOut); err != nil || st.Size() == 0 {
		t.Errorf("parquet export missing or empty: %v", err)
	}
}
