package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column layout, declared in the form ent's migrate package
// expects and applied with schema.NewMigrate on Open.

const (
	tableModules         = "modules"
	tableProgress        = "progress"
	tableQuizSessions    = "quiz_sessions"
	tableQuizAttempts    = "quiz_attempts"
	tableSectionFeedback = "section_feedback"
	tableModuleFeedback  = "module_feedback"
	tableCertificates    = "certificates"
	tableEvents          = "events"
)

var (
	// ModulesColumns holds the columns for the "modules" table.
	ModulesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "document", Type: field.TypeJSON},
		{Name: "source", Type: field.TypeString, Default: ""},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ModulesTable holds the schema information for the "modules" table.
	ModulesTable = &schema.Table{
		Name:       tableModules,
		Columns:    ModulesColumns,
		PrimaryKey: []*schema.Column{ModulesColumns[0]},
	}

	// ProgressColumns holds the columns for the "progress" table.
	ProgressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "current_page_index", Type: field.TypeInt, Default: 0},
		{Name: "completed_sections", Type: field.TypeJSON},
		{Name: "answers", Type: field.TypeJSON},
		{Name: "completion_percentage", Type: field.TypeInt, Default: 0},
		{Name: "is_completed", Type: field.TypeBool, Default: false},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ProgressTable holds the schema information for the "progress" table.
	ProgressTable = &schema.Table{
		Name:       tableProgress,
		Columns:    ProgressColumns,
		PrimaryKey: []*schema.Column{ProgressColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "progress_learner_id_module_id",
				Unique:  true,
				Columns: []*schema.Column{ProgressColumns[1], ProgressColumns[2]},
			},
		},
	}

	// QuizSessionsColumns holds the columns for the "quiz_sessions" table.
	QuizSessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "section_id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// QuizSessionsTable holds the schema information for the "quiz_sessions" table.
	QuizSessionsTable = &schema.Table{
		Name:       tableQuizSessions,
		Columns:    QuizSessionsColumns,
		PrimaryKey: []*schema.Column{QuizSessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "quizsession_section_id_learner_id",
				Unique:  true,
				Columns: []*schema.Column{QuizSessionsColumns[1], QuizSessionsColumns[2]},
			},
		},
	}

	// QuizAttemptsColumns holds the columns for the "quiz_attempts" table.
	QuizAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "attempt_id", Type: field.TypeString, Unique: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "section_id", Type: field.TypeString},
		{Name: "attempt_number", Type: field.TypeInt},
		{Name: "score", Type: field.TypeInt},
		{Name: "max_score", Type: field.TypeInt},
		{Name: "percentage", Type: field.TypeInt},
		{Name: "passed", Type: field.TypeBool},
		{Name: "answers", Type: field.TypeJSON},
		{Name: "time_taken_seconds", Type: field.TypeInt},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime},
	}
	// QuizAttemptsTable holds the schema information for the "quiz_attempts" table.
	QuizAttemptsTable = &schema.Table{
		Name:       tableQuizAttempts,
		Columns:    QuizAttemptsColumns,
		PrimaryKey: []*schema.Column{QuizAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "quizattempt_learner_id_module_id_section_id_attempt_number",
				Unique:  true,
				Columns: []*schema.Column{QuizAttemptsColumns[2], QuizAttemptsColumns[3], QuizAttemptsColumns[4], QuizAttemptsColumns[5]},
			},
			{
				Name:    "quizattempt_completed_at",
				Columns: []*schema.Column{QuizAttemptsColumns[13]},
			},
		},
	}

	// SectionFeedbackColumns holds the columns for the "section_feedback" table.
	SectionFeedbackColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "section_id", Type: field.TypeString},
		{Name: "helpful", Type: field.TypeBool, Nullable: true},
		{Name: "clarity", Type: field.TypeInt, Default: 0},
		{Name: "difficulty", Type: field.TypeInt, Default: 0},
		{Name: "comments", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	// SectionFeedbackTable holds the schema information for the "section_feedback" table.
	SectionFeedbackTable = &schema.Table{
		Name:       tableSectionFeedback,
		Columns:    SectionFeedbackColumns,
		PrimaryKey: []*schema.Column{SectionFeedbackColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "sectionfeedback_learner_id_module_id_section_id",
				Unique:  true,
				Columns: []*schema.Column{SectionFeedbackColumns[1], SectionFeedbackColumns[2], SectionFeedbackColumns[3]},
			},
		},
	}

	// ModuleFeedbackColumns holds the columns for the "module_feedback" table.
	ModuleFeedbackColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "rating", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeInt, Default: 0},
		{Name: "feedback_text", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "suggestions", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ModuleFeedbackTable holds the schema information for the "module_feedback" table.
	ModuleFeedbackTable = &schema.Table{
		Name:       tableModuleFeedback,
		Columns:    ModuleFeedbackColumns,
		PrimaryKey: []*schema.Column{ModuleFeedbackColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "modulefeedback_learner_id_module_id",
				Unique:  true,
				Columns: []*schema.Column{ModuleFeedbackColumns[1], ModuleFeedbackColumns[2]},
			},
		},
	}

	// CertificatesColumns holds the columns for the "certificates" table.
	CertificatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "unlocked_at", Type: field.TypeTime},
		{Name: "certificate_id", Type: field.TypeString, Nullable: true},
		{Name: "issued_at", Type: field.TypeTime, Nullable: true},
	}
	// CertificatesTable holds the schema information for the "certificates" table.
	CertificatesTable = &schema.Table{
		Name:       tableCertificates,
		Columns:    CertificatesColumns,
		PrimaryKey: []*schema.Column{CertificatesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "certificate_learner_id_module_id",
				Unique:  true,
				Columns: []*schema.Column{CertificatesColumns[1], CertificatesColumns[2]},
			},
		},
	}

	// EventsColumns holds the columns for the "events" table.
	EventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "kind", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString, Default: ""},
		{Name: "module_id", Type: field.TypeString, Default: ""},
		{Name: "section_id", Type: field.TypeString, Default: ""},
		{Name: "detail", Type: field.TypeString, Default: ""},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	// EventsTable holds the schema information for the "events" table.
	EventsTable = &schema.Table{
		Name:       tableEvents,
		Columns:    EventsColumns,
		PrimaryKey: []*schema.Column{EventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "event_timestamp",
				Columns: []*schema.Column{EventsColumns[2]},
			},
			{
				Name:    "event_learner_id_module_id",
				Columns: []*schema.Column{EventsColumns[4], EventsColumns[5]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ModulesTable,
		ProgressTable,
		QuizSessionsTable,
		QuizAttemptsTable,
		SectionFeedbackTable,
		ModuleFeedbackTable,
		CertificatesTable,
		EventsTable,
	}
)
