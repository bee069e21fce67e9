// Package gormstore is the SQLite-backed reference implementation of the
// session/trade store.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tradechat/internal/store"
	"tradechat/internal/types"
)

type GormStore struct {
	db *gorm.DB
}

var _ store.Store = (*GormStore)(nil)

// NewGormStore opens (creating if needed) the SQLite database at path and
// migrates the schema.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&sessionModel{}, &tradeModel{}, &turnLogModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep the pool tiny so HTTP reads stay concurrent without
	// lock contention.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ListSessions(ctx context.Context, userID string) ([]types.TradingSession, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	var models []sessionModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.TradingSession, 0, len(models))
	for _, m := range models {
		out = append(out, sessionModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) ListTrades(ctx context.Context, userID, sessionID string) ([]types.Trade, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	var models []tradeModel
	if err := query.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Trade, 0, len(models))
	for _, m := range models {
		out = append(out, tradeModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) GetSession(ctx context.Context, sessionID, userID string) (types.TradingSession, error) {
	if s == nil || s.db == nil {
		return types.TradingSession{}, fmt.Errorf("gorm store not initialized")
	}
	var m sessionModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", strings.TrimSpace(sessionID), strings.TrimSpace(userID)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.TradingSession{}, store.ErrSessionNotFound
		}
		return types.TradingSession{}, err
	}
	return sessionModelToRecord(m), nil
}

func (s *GormStore) CreateSession(ctx context.Context, session *types.TradingSession) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if session == nil {
		return fmt.Errorf("nil session")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("session user_id is required")
	}
	if strings.TrimSpace(session.Name) == "" {
		return fmt.Errorf("session name is required")
	}
	if session.InitialCapital.Sign() < 0 {
		return fmt.Errorf("session initial_capital cannot be negative")
	}
	if session.CurrentCapital.Sign() < 0 {
		return fmt.Errorf("session current_capital cannot be negative")
	}
	now := time.Now()
	if strings.TrimSpace(session.ID) == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}
	model := newSessionModel(*session)
	return s.db.WithContext(ctx).Create(&model).Error
}

// CreateTrade inserts a trade after verifying its session exists and belongs
// to the same user. A dangling or foreign session id is rejected.
func (s *GormStore) CreateTrade(ctx context.Context, trade *types.Trade) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if trade == nil {
		return fmt.Errorf("nil trade")
	}
	if strings.TrimSpace(trade.UserID) == "" {
		return fmt.Errorf("trade user_id is required")
	}
	if trade.Margin.Sign() < 0 {
		return fmt.Errorf("trade margin cannot be negative")
	}
	if _, err := s.GetSession(ctx, trade.SessionID, trade.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(trade.ID) == "" {
		trade.ID = uuid.NewString()
	}
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	if trade.Side == "" {
		trade.Side = types.SideLong
	}
	model := newTradeModel(*trade)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) AppendTurnLog(ctx context.Context, rec store.TurnLogRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	usageJSON, _ := json.Marshal(rec.Usage)
	model := newTurnLogModel(rec, usageJSON)
	return s.db.WithContext(ctx).Create(&model).Error
}
