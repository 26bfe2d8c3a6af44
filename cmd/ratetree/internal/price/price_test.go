package price

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const textbookModel = `"model": {"type": "binomial", "r": 0.05, "u": 1.1, "d": 0.9}`

func TestRun_SingleObject(t *testing.T) {
	t.Parallel()

	in := `{"task_id": "zcb-3", "instrument": "zcb", "face_value": 100, "maturity": 3, ` + textbookModel + `}`
	var stdout, stderr bytes.Buffer
	if code := Run(nil, strings.NewReader(in), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stdout=%s stderr=%s", code, stdout.String(), stderr.String())
	}

	var out PricingOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not a JSON object: %v (%s)", err, stdout.String())
	}
	if out.TaskID != "zcb-3" || math.Abs(out.Value-86.39160795731237) > 1e-10 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRun_ArrayWithFailure(t *testing.T) {
	t.Parallel()

	in := `[
		{"instrument": "caplet", "notional": 1000000, "strike": 0.02, "maturity": 3, ` + textbookModel + `},
		{"instrument": "swaption", "notional": 1000000, "fixed_rate": 0.05, "exercise": 1, "maturity": 3, "up_probability": 0.5, ` + textbookModel + `},
		{"instrument": "forward", "face_value": 100, "coupon": 0.1, "exercise": 5, "maturity": 5, ` + textbookModel + `},
		{"instrument": "straddle", ` + textbookModel + `}
	]`
	var stdout, stderr bytes.Buffer
	if code := Run(nil, strings.NewReader(in), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1 when a request fails, got %d", code)
	}

	var outs []PricingOutput
	if err := json.Unmarshal(stdout.Bytes(), &outs); err != nil {
		t.Fatalf("output is not a JSON array: %v (%s)", err, stdout.String())
	}
	if len(outs) != 4 {
		t.Fatalf("expected 4 results, got %d", len(outs))
	}
	if outs[0].Error != "" || math.Abs(outs[0].Value-25855.645321728654) > 1e-6 {
		t.Fatalf("caplet mismatch: %+v", outs[0])
	}
	if outs[1].Error != "" || math.Abs(outs[1].Value-4383.789834669079) > 1e-6 {
		t.Fatalf("swaption mismatch: %+v", outs[1])
	}
	if outs[2].Error == "" {
		t.Fatalf("expected delivery at maturity to fail: %+v", outs[2])
	}
	if !strings.Contains(outs[3].Error, "unknown instrument") {
		t.Fatalf("expected unknown instrument error: %+v", outs[3])
	}
	if !strings.Contains(stderr.String(), "pricing failed") {
		t.Fatalf("expected failure logs on stderr, got %q", stderr.String())
	}
}

func TestRun_BDTAndYield(t *testing.T) {
	t.Parallel()

	in := `[
		{"instrument": "zcb", "face_value": 1, "maturity": 3, "model": {"type": "bdt", "a": [4, 4, 4], "b": 0}},
		{"instrument": "ytm", "price": 100, "face_value": 100, "coupon": 0.05, "maturity": 10}
	]`
	var stdout, stderr bytes.Buffer
	if code := Run(nil, strings.NewReader(in), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stdout=%s", code, stdout.String())
	}
	var outs []PricingOutput
	if err := json.Unmarshal(stdout.Bytes(), &outs); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if want := math.Pow(1.04, -3); math.Abs(outs[0].Value-want) > 1e-14 {
		t.Fatalf("flat BDT zcb mismatch: got %v want %v", outs[0].Value, want)
	}
	if math.Abs(outs[1].Value-0.05) > 1e-10 {
		t.Fatalf("par bond yield should equal coupon, got %v", outs[1].Value)
	}
}

func TestRun_MetricsTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ratetree.prom")
	in := `{"instrument": "swap", "notional": 1, "fixed_rate": 0.05, "maturity": 3, ` + textbookModel + `}`
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"-metrics", path}, strings.NewReader(in), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stdout=%s stderr=%s", code, stdout.String(), stderr.String())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(raw), `ratetree_pricings_total{instrument="swap",outcome="ok"} 1`) {
		t.Fatalf("pricing counter missing:\n%s", raw)
	}
}

func TestRun_BadInput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := Run(nil, strings.NewReader("{not json"), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "failed to parse JSON input") {
		t.Fatalf("unexpected stdout: %s", stdout.String())
	}

	stdout.Reset()
	if code := Run(nil, strings.NewReader("[]"), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1 for empty array, got %d", code)
	}
	if code := Run([]string{"-bogus"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for unknown flag, got %d", code)
	}
}
