package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	runsTableName  = "runs"
	callsTableName = "llm_calls"
)

var (
	runsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "run_uuid", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "system_prompt", Type: field.TypeString, Size: 2147483647},
		{Name: "user_prompt", Type: field.TypeString, Size: 2147483647},
		{Name: "models", Type: field.TypeJSON},
		{Name: "temperature", Type: field.TypeFloat64},
		{Name: "top_p", Type: field.TypeFloat64},
		{Name: "max_tokens", Type: field.TypeInt},
		{Name: "frequency_penalty", Type: field.TypeFloat64},
		{Name: "presence_penalty", Type: field.TypeFloat64},
		{Name: "results", Type: field.TypeJSON},
		{Name: "prompt_tokens", Type: field.TypeInt},
		{Name: "completion_tokens", Type: field.TypeInt},
		{Name: "cost", Type: field.TypeFloat64},
	}
	runsTable = &schema.Table{
		Name:       runsTableName,
		Columns:    runsColumns,
		PrimaryKey: []*schema.Column{runsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "run_run_uuid", Columns: []*schema.Column{runsColumns[1]}},
		},
	}

	callsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "run_uuid", Type: field.TypeString, Default: ""},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "timestamp", Type: field.TypeTime},
	}
	callsTable = &schema.Table{
		Name:       callsTableName,
		Columns:    callsColumns,
		PrimaryKey: []*schema.Column{callsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmcall_run_uuid", Columns: []*schema.Column{callsColumns[1]}},
			{Name: "llmcall_model", Columns: []*schema.Column{callsColumns[3]}},
			{Name: "llmcall_timestamp", Columns: []*schema.Column{callsColumns[9]}},
		},
	}

	tables = []*schema.Table{runsTable, callsTable}
)
