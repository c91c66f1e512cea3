package ingest

import "testing"

func TestParseRecordsJSONArray(t *testing.T) {
	var errs []error
	recs := parseRecords([]byte(`[{"a":1},{"a":2}]`), func(i int, err error) {
		errs = append(errs, err)
	})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestParseRecordsJSONLines(t *testing.T) {
	var errs []error
	recs := parseRecords([]byte("{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"), func(i int, err error) {
		errs = append(errs, err)
	})
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestParseRecordsSingleObject(t *testing.T) {
	recs := parseRecords([]byte(`{"a":1,"b":2}`), func(i int, err error) {
		t.Fatalf("unexpected error callback: %v", err)
	})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
}

func TestParseRecordsJSONLinesWithBadLine(t *testing.T) {
	var errs []struct {
		index int
		err   error
	}
	recs := parseRecords([]byte("{\"a\":1}\nnot json\n{\"a\":2}\n"), func(i int, err error) {
		errs = append(errs, struct {
			index int
			err   error
		}{i, err})
	})
	if len(recs) != 2 {
		t.Fatalf("expected 2 successfully parsed records, got %d", len(recs))
	}
	if len(errs) != 1 || errs[0].index != 1 {
		t.Fatalf("expected one error at index 1, got %+v", errs)
	}
}

func TestParseRecordsEmptyContent(t *testing.T) {
	recs := parseRecords([]byte("   \n  "), func(i int, err error) {
		t.Fatalf("unexpected error callback: %v", err)
	})
	if len(recs) != 0 {
		t.Fatalf("expected 0 records for blank content, got %d", len(recs))
	}
}
