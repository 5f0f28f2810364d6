package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type staticMeds struct{ lines []MedicationLine }

func (s staticMeds) Lines(context.Context, string) ([]MedicationLine, error) {
	return s.lines, nil
}

func newTestHandler(f *ledgerFixture) (*Handler, *echo.Echo) {
	return NewHandler(f.svc, staticMeds{}), echo.New()
}

func TestHandler_GetSummary(t *testing.T) {
	f := newFixture()
	stored := NewSummary(testBill)
	stored.TotalAmount[CatTotal] = NewCell(dec("1234"))
	f.repo.rows[testBill] = stored
	h, e := newTestHandler(f)

	req := httptest.NewRequest(http.MethodGet, "/?visit_code="+testVisit, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.GetSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalAmount[CatTotal].String() != "1234" {
		t.Errorf("expected total 1234, got %q", out.TotalAmount[CatTotal])
	}
}

func TestHandler_SetCellThenSave(t *testing.T) {
	f := newFixture()
	h, e := newTestHandler(f)

	body := `{"row":"discount","category":"total","value":"150"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.SetCell(c); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if f.repo.upserts != 1 {
		t.Errorf("expected one upsert, got %d", f.repo.upserts)
	}
}

func TestHandler_SetCell_BadValue(t *testing.T) {
	f := newFixture()
	h, e := newTestHandler(f)

	body := `{"row":"discount","category":"total","value":"abc"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.SetCell(c); err == nil {
		t.Error("expected error for a non-numeric value")
	}
}

func TestHandler_PopulateQueuesBeforeLoad(t *testing.T) {
	f := newFixture()
	h, e := newTestHandler(f)

	req := httptest.NewRequest(http.MethodPost, "/?visit_code="+testVisit, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.Populate(c); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	var out struct {
		Queued bool `json:"queued"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Queued {
		t.Error("expected populate to report queued before any load")
	}
}

func TestHandler_Recalculate(t *testing.T) {
	f := newFixture()
	h, e := newTestHandler(f)
	if _, err := f.svc.Load(context.Background(), testBill, testVisit); err != nil {
		t.Fatal(err)
	}
	for row, v := range map[RowName]string{
		RowTotalAmount: "1000", RowDiscount: "100", RowAmountPaid: "200", RowRefundedAmount: "50",
	} {
		if err := f.svc.SetCell(context.Background(), testBill, row, CatTotal, v); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.Recalculate(c); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	var out Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Balance[CatTotal].String() != "850" {
		t.Errorf("expected balance 850, got %q", out.Balance[CatTotal])
	}
}

func TestHandler_DiscountRoundTrip(t *testing.T) {
	f := newFixture()
	h, e := newTestHandler(f)
	if _, err := f.svc.Load(context.Background(), testBill, testVisit); err != nil {
		t.Fatal(err)
	}

	body := `{"total":"275"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.PutDiscount(c); err != nil {
		t.Fatalf("PutDiscount: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.GetDiscount(c); err != nil {
		t.Fatalf("GetDiscount: %v", err)
	}
	var out map[Category]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out[CatTotal] != "275" {
		t.Errorf("expected discount total 275, got %q", out[CatTotal])
	}
}

func TestHandler_Clear(t *testing.T) {
	f := newFixture()
	h, e := newTestHandler(f)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("billId")
	c.SetParamValues(testBill)

	if err := h.Clear(c); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
