package sql

import (
	"embed"
)

// Migrations holds the idempotent DDL applied by db.ApplyMigrations.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/register_batch.sql
var RegisterBatch string

//go:embed queries/lookup_batch_by_file.sql
var LookupBatchByFile string

//go:embed queries/reset_batch.sql
var ResetBatch string

//go:embed queries/get_batch.sql
var GetBatch string

//go:embed queries/advance_cursor.sql
var AdvanceCursor string

//go:embed queries/insert_exam_record.sql
var InsertExamRecord string

//go:embed queries/insert_rejected_row.sql
var InsertRejectedRow string

//go:embed queries/count_committed.sql
var CountCommitted string

//go:embed queries/count_missing_required.sql
var CountMissingRequired string

//go:embed queries/count_window_violations.sql
var CountWindowViolations string

//go:embed queries/delete_batch_records.sql
var DeleteBatchRecords string

//go:embed queries/delete_staging_batch.sql
var DeleteStagingBatch string

//go:embed queries/export_rejections.sql
var ExportRejections string

//go:embed queries/select_records_for_reapply.sql
var SelectRecordsForReapply string

//go:embed queries/update_record_derived.sql
var UpdateRecordDerived string
