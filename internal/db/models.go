package db

import "time"

// TranslationRun maps csvtrans.translation_runs. One row per finished run;
// cell text is never stored.
type TranslationRun struct {
	RunID      int64     `gorm:"column:run_id;primaryKey;autoIncrement" json:"-"`
	RunUUID    string    `gorm:"column:run_uuid;type:uuid;not null;uniqueIndex" json:"run_uuid"`
	Surface    string    `gorm:"column:surface;type:text;not null" json:"surface"`
	Backend    string    `gorm:"column:backend;type:text;not null" json:"backend"`
	Model      string    `gorm:"column:model;type:text;not null" json:"model,omitempty"`
	SourceLang string    `gorm:"column:source_lang;type:text;not null" json:"source_lang,omitempty"`
	TargetLang string    `gorm:"column:target_lang;type:text;not null" json:"target_lang,omitempty"`
	Rows       int       `gorm:"column:rows;type:integer;not null" json:"rows"`
	Cells      int       `gorm:"column:cells;type:integer;not null" json:"cells"`
	Translated int       `gorm:"column:translated;type:integer;not null" json:"translated"`
	Failed     int       `gorm:"column:failed;type:integer;not null" json:"failed"`
	Empty      int       `gorm:"column:empty;type:integer;not null" json:"empty"`
	DurationMS int64     `gorm:"column:duration_ms;type:bigint;not null" json:"duration_ms"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null" json:"created_at"`
}

func (TranslationRun) TableName() string { return "csvtrans.translation_runs" }

func autoMigrateModels() []any {
	return []any{
		&TranslationRun{},
	}
}
