package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDSL = `
SOURCE "EU.MDR.ANNEX_III" {
  jurisdiction: EU
  instrument: "Regulation (EU) 2017/745 Annex III"
  effective_date: "2021-05-26"
}

OBLIGATION "EU.PSUR.CONTENT.SALES_VOLUME" {
  title: "Sales volume reporting"
  jurisdiction: EU
  mandatory: true
  required_evidence_types: [sales_volume]
  forbidden_transformations: [invent, extrapolate]
  allowed_transformations: [summarize, cite]
  allowed_output_types: [table, table_ref]
  sources: ["EU.MDR.ANNEX_III"]
}
`

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"psurctl", "bogus"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command") {
		t.Errorf("expected unknown command message, got %q", stderr.String())
	}
}

func TestRunNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"psurctl"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestCompileQualifyAdjudicateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dslPath := filepath.Join(dir, "eu.dsl")
	if err := os.WriteFile(dslPath, []byte(testDSL), 0o644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "ir")
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"psurctl", "compile", dslPath, "--out", outDir}, &stdout, &stderr); code != 0 {
		t.Fatalf("compile failed: code=%d stderr=%s", code, stderr.String())
	}

	templatePath := filepath.Join(dir, "template.json")
	mustWriteJSON(t, templatePath, `{
		"template_id": "tmpl",
		"name": "Test Template",
		"version": "1.0",
		"slots": [{"slot_id": "sales", "path": "Sales", "slot_type": "table", "required": true}]
	}`)

	mappingPath := filepath.Join(dir, "mapping.json")
	mustWriteJSON(t, mappingPath, `{
		"mapping_id": "m1",
		"template_id": "tmpl",
		"mappings": [{"obligation_id": "EU.PSUR.CONTENT.SALES_VOLUME", "slot_ids": ["sales"]}]
	}`)

	stdout.Reset()
	stderr.Reset()
	code := Run([]string{"psurctl", "qualify",
		"--obligations", filepath.Join(outDir, "compiled_obligations.json"),
		"--template", templatePath,
		"--mapping", mappingPath,
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("qualify failed: code=%d stdout=%s stderr=%s", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "QUALIFICATION PASSED") {
		t.Errorf("expected pass, got %q", stdout.String())
	}

	evidencePath := filepath.Join(dir, "atom.json")
	mustWriteJSON(t, evidencePath, `{
		"atom_id": "sales_2024",
		"evidence_type": "sales_volume",
		"content": {"total_units": 15000},
		"created_at": "2024-01-01T00:00:00Z"
	}`)

	proposalPath := filepath.Join(dir, "proposal.json")
	mustWriteJSON(t, proposalPath, `{
		"proposal_id": "p1",
		"agent_id": "agent-1",
		"slot_id": "sales",
		"payload": {"type": "table", "rows": [[{"value": "EU"}, {"value": 8000}]]},
		"evidence_atoms": ["sales_2024"],
		"claimed_basis": ["EU.PSUR.CONTENT.SALES_VOLUME"],
		"transformations_used": ["summarize"],
		"submitted_at": "2024-06-01T00:00:00Z"
	}`)

	traceOut := filepath.Join(dir, "traces")
	stdout.Reset()
	stderr.Reset()
	code = Run([]string{"psurctl", "adjudicate",
		"--obligations", filepath.Join(outDir, "compiled_obligations.json"),
		"--rules", filepath.Join(outDir, "compiled_rules.json"),
		"--template", templatePath,
		"--mapping", mappingPath,
		"--proposal", proposalPath,
		"--evidence", evidencePath,
		"--trace-out", traceOut,
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("adjudicate failed: code=%d stdout=%s stderr=%s", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "ACCEPTED") {
		t.Errorf("expected ACCEPTED, got %q", stdout.String())
	}

	entries, err := os.ReadDir(traceOut)
	if err != nil {
		t.Fatalf("reading trace-out: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 trace nodes (one per cell), got %d", len(entries))
	}

	stdout.Reset()
	stderr.Reset()
	code = Run([]string{"psurctl", "trace-export", "--traces-dir", traceOut}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("trace-export failed: code=%d stderr=%s", code, stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 ldjson lines, got %d", len(lines))
	}
}

func TestRunPeriods(t *testing.T) {
	dir := t.TempDir()
	periodsPath := filepath.Join(dir, "periods.json")
	mustWriteJSON(t, periodsPath, `[
		{"period_id": "p1", "psur_ref": "ref1", "start_date": "2023-01-01T00:00:00Z", "end_date": "2023-11-30T00:00:00Z", "jurisdiction": "EU"},
		{"period_id": "p2", "psur_ref": "ref1", "start_date": "2024-01-01T00:00:00Z", "end_date": "2024-12-31T00:00:00Z", "jurisdiction": "EU"}
	]`)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"psurctl", "periods", periodsPath}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected non-contiguous exit code 1, got %d, stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "NOT CONTIGUOUS") {
		t.Errorf("expected gap to be detected, got %q", stdout.String())
	}
}

func TestRunWithConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "psurctl.yaml")
	if err := os.WriteFile(cfgPath, []byte("log_level: warn\ndefault_jurisdiction: UK\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := Run([]string{"psurctl", "--config", cfgPath, "help"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if cfg.DefaultJurisdiction != "UK" {
		t.Errorf("DefaultJurisdiction = %q, want UK", cfg.DefaultJurisdiction)
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()

	templatePath := filepath.Join(dir, "template.json")
	mustWriteJSON(t, templatePath, `{
		"template_id": "tmpl",
		"name": "Test Template",
		"version": "1.0",
		"slots": [{"slot_id": "summary", "path": "Executive Summary", "slot_type": "narrative", "required": true}]
	}`)

	proposalsPath := filepath.Join(dir, "proposals.json")
	mustWriteJSON(t, proposalsPath, `[{
		"proposal_id": "p1",
		"agent_id": "agent-1",
		"slot_id": "summary",
		"payload": {"type": "narrative", "text": "No new safety signals were identified."},
		"submitted_at": "2024-06-01T00:00:00Z"
	}]`)

	adjudicationsPath := filepath.Join(dir, "adjudications.json")
	mustWriteJSON(t, adjudicationsPath, `[{
		"adjudication_id": "adj1",
		"proposal_id": "p1",
		"status": "ACCEPTED",
		"check_results": [],
		"rejection_reasons": [],
		"adjudicated_at": "2024-06-01T00:00:00Z"
	}]`)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"psurctl", "render",
		"--template", templatePath,
		"--proposals", proposalsPath,
		"--adjudications", adjudicationsPath,
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("render failed: code=%d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "## Executive Summary") {
		t.Errorf("missing slot section, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "No new safety signals") {
		t.Errorf("missing accepted content, got %q", stdout.String())
	}
}

func mustWriteJSON(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
