// Package auditlog routes audit events to Mongo and/or zap according to
// per-category settings.
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	"github.com/dalemusser/shelterhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for Config fields.
const (
	All = "all" // Mongo and zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config holds audit logging configuration per category.
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events. A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return All
}

// Log records event according to the category's destination.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	dest := l.setting(event.Category)
	if dest == Off {
		return
	}
	if dest == All || dest == Log {
		l.logToZap(event)
	}
	if (dest == All || dest == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.Success = true
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailed records a failed login. userID is nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	e := fromRequest(r, audit.CategoryAuth, eventType)
	e.UserID = userID
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventPasswordChanged)
	e.UserID = &userID
	e.ActorID = &userID
	e.Success = true
	l.Log(ctx, e)
}

// --- Admin events ---

// UserEvent records a change made by actorID to the account targetUserID.
func (l *Logger) UserEvent(ctx context.Context, r *http.Request, eventType string, actorID, targetUserID primitive.ObjectID, details map[string]string) {
	e := fromRequest(r, audit.CategoryAdmin, eventType)
	e.ActorID = &actorID
	e.UserID = &targetUserID
	e.Success = true
	e.Details = details
	l.Log(ctx, e)
}

// RecordEvent records a change made by actorID to a domain record
// (beneficiary, stock item, approval).
func (l *Logger) RecordEvent(ctx context.Context, r *http.Request, eventType string, actorID, targetID primitive.ObjectID, details map[string]string) {
	e := fromRequest(r, audit.CategoryAdmin, eventType)
	e.ActorID = &actorID
	e.TargetID = &targetID
	e.Success = true
	e.Details = details
	l.Log(ctx, e)
}
