package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"trustblocks/models"
	"trustblocks/pkg/mail"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Subscriber{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func newNewsletterRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// unconfigured mailer: sending is skipped, never fails the request
	r.POST("/api/subscribe", Subscribe(db, mail.New("", 0, "", "")))
	return r
}

func subscriberCount(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Subscriber{}).Where("email = ?", email).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestSubscribeCreatesRow(t *testing.T) {
	db := newTestDB(t)
	r := newNewsletterRouter(db)

	w := postJSON(r, "/api/subscribe", `{"email": "ada@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"message":"Subscribed"}` {
		t.Fatalf("unexpected body %s", body)
	}
	if n := subscriberCount(t, db, "ada@example.com"); n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}

	var sub models.Subscriber
	if err := db.Where("email = ?", "ada@example.com").First(&sub).Error; err != nil {
		t.Fatalf("expected subscriber to exist: %v", err)
	}
	if !sub.Subscribed {
		t.Fatalf("expected subscribed to default to true")
	}
}

func TestSubscribeDuplicateConflict(t *testing.T) {
	db := newTestDB(t)
	r := newNewsletterRouter(db)

	if w := postJSON(r, "/api/subscribe", `{"email": "bob@example.com"}`); w.Code != http.StatusCreated {
		t.Fatalf("first subscribe: expected 201, got %d", w.Code)
	}
	w := postJSON(r, "/api/subscribe", `{"email": "bob@example.com"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("second subscribe: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"message":"Already subscribed"}` {
		t.Fatalf("unexpected body %s", body)
	}
	if n := subscriberCount(t, db, "bob@example.com"); n != 1 {
		t.Fatalf("expected a single row after duplicate attempt, got %d", n)
	}
}

func TestSubscribeNormalizesEmailCase(t *testing.T) {
	db := newTestDB(t)
	r := newNewsletterRouter(db)

	postJSON(r, "/api/subscribe", `{"email": "Carol@Example.com"}`)
	w := postJSON(r, "/api/subscribe", `{"email": "carol@example.com"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected case-insensitive duplicate to conflict, got %d", w.Code)
	}
}

func TestSubscribeMissingEmail(t *testing.T) {
	db := newTestDB(t)
	r := newNewsletterRouter(db)

	for _, body := range []string{`{}`, `{"email": "  "}`, `not json`} {
		w := postJSON(r, "/api/subscribe", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}

	var n int64
	db.Model(&models.Subscriber{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no rows created, got %d", n)
	}
}
