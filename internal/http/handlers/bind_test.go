package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/voyagr/travelstory/internal/http/handlers"
)

type bindProbe struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Age      int    `json:"age" binding:"omitempty,min=1"`
}

func newBindRouter() *gin.Engine {
	r := gin.New()
	r.POST("/probe", func(c *gin.Context) {
		var req bindProbe
		if !handlers.BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

type bindErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields []handlers.FieldError `json:"fields"`
			JSON   string                `json:"json"`
		} `json:"details"`
	} `json:"error"`
}

func TestBindJSONFieldErrorsUseJSONNames(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/probe", `{"email":"not-an-email"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body bindErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	got := map[string]string{}
	for _, f := range body.Error.Details.Fields {
		got[f.Field] = f.Rule
	}

	if got["fullName"] != "required" {
		t.Errorf("fullName rule = %q, want required (fields=%v)", got["fullName"], body.Error.Details.Fields)
	}
	if got["email"] != "email" {
		t.Errorf("email rule = %q, want email (fields=%v)", got["email"], body.Error.Details.Fields)
	}
}

func TestBindJSONValidationMessages(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/probe", `{"fullName":"A","email":"a@x.com","age":0}`)

	if w.Code != http.StatusOK {
		t.Fatalf("zero age with omitempty must pass, got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/probe", `{"fullName":"A","email":"a@x.com","age":-3}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body bindErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	if len(body.Error.Details.Fields) != 1 {
		t.Fatalf("fields = %v", body.Error.Details.Fields)
	}
	f := body.Error.Details.Fields[0]
	if f.Field != "age" || f.Rule != "min" || f.Param != "1" {
		t.Errorf("unexpected field error: %+v", f)
	}
	if f.Message != "must be at least 1" {
		t.Errorf("message = %q", f.Message)
	}
}

func TestBindJSONSyntaxError(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/probe", `{"fullName": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body bindErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Error.Code != "invalid_request" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestBindJSONTypeMismatch(t *testing.T) {
	r := newBindRouter()

	w := doJSON(r, http.MethodPost, "/probe", `{"fullName":"A","email":"a@x.com","age":"twelve"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}
