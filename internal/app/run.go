package app

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/healthguard/healthguard"
)

const fyneAppID = "yashubustudio.healthguard"

// Run loads the configuration, wires the service and starts the desktop UI.
func Run() error {
	cfg, err := healthguard.LoadConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sink := newLogSink(logLineLimit)
	defer sink.Stop()
	logger, err := healthguard.NewLogger(cfg.LogLevel, zapcore.AddSync(sink))
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := healthguard.NewService(nil, cfg, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("close service", zap.Error(err))
		}
	}()

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc, sink)
	logger.Info("healthguard started", zap.String("store", cfg.Store.Type), zap.String("knowledge_base", cfg.Chat.KnowledgeBase))
	u.w.ShowAndRun()
	return nil
}
