package healthguard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Assessment is the outcome of one prediction request at the front-end boundary.
type Assessment struct {
	Disease         Disease
	Prediction      *Prediction
	Report          *Report
	Message         string
	Recommendations []string
	Err             error
}

// Failed reports whether the request ended in an error.
func (a Assessment) Failed() bool {
	return a.Err != nil
}

// Service owns the artifact cache and the knowledge base for one session.
type Service struct {
	cfgMu sync.RWMutex
	cfg   Config

	store  ArtifactStore
	loader *ArtifactLoader
	logger *zap.Logger

	kbMu    sync.Mutex
	matcher *Matcher
	kbErr   error
}

// NewService constructs a service. A nil store is built from cfg.Store.
func NewService(store ArtifactStore, cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	if store == nil {
		var err error
		store, err = NewArtifactStore(cfg.Store)
		if err != nil {
			return nil, err
		}
	}
	loader, err := NewArtifactLoader(store, cfg.CacheSize, cfg.OrtDLL, logger)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, store: store, loader: loader, logger: logger}, nil
}

// Close drops cached artifacts. Pairs still held by an in-flight prediction are closed
// when that prediction finishes; the ONNX runtime follows its last open session.
func (s *Service) Close() error {
	s.loader.Purge()
	return nil
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// Loader exposes the artifact cache.
func (s *Service) Loader() *ArtifactLoader {
	return s.loader
}

// Predict encodes form, loads the disease's artifacts and scores the vector. The form is
// validated before any artifact is touched.
func (s *Service) Predict(ctx context.Context, d Disease, form Form) (*Prediction, error) {
	schema, err := SchemaFor(d)
	if err != nil {
		return nil, err
	}
	vec, err := schema.Encode(form)
	if err != nil {
		return nil, err
	}
	m := s.Config().Model(d)
	pair, err := s.loader.Load(ctx, m.Classifier, m.Scaler)
	if err != nil {
		return nil, err
	}
	defer pair.Release()
	label, err := Predict(pair, vec)
	if err != nil {
		return nil, err
	}
	return &Prediction{Disease: d, Label: label, Vector: vec}, nil
}

// Assess runs Predict and packages the result for display. Failures are logged and
// turned into an error report; they never panic or touch cached state.
func (s *Service) Assess(ctx context.Context, d Disease, patientName string, form Form) Assessment {
	out := Assessment{Disease: d}
	schema, err := SchemaFor(d)
	if err != nil {
		out.Err = err
		out.Message = fmt.Sprintf("Error in prediction: %v", err)
		return out
	}
	fail := func(err error) Assessment {
		s.logger.Warn("prediction failed", zap.String("disease", string(d)), zap.Error(err))
		out.Err = err
		out.Message = "Error in prediction: " + UserMessage(err)
		out.Report = ErrorReport(schema, patientName, err)
		return out
	}

	pred, err := s.Predict(ctx, d, form)
	if err != nil {
		return fail(err)
	}
	report, err := BuildReport(schema, patientName, *pred)
	if err != nil {
		return fail(err)
	}
	out.Prediction = pred
	out.Report = report
	out.Message = ResultMessage(d, pred.HighRisk())
	if pred.HighRisk() {
		out.Recommendations = Recommendations(d)
	}
	s.logger.Info("prediction completed",
		zap.String("disease", string(d)),
		zap.String("verdict", pred.Verdict()),
		zap.String("report_id", report.ID.String()),
	)
	return out
}

// Ask answers a free-text question. The knowledge base is loaded on first use; if it
// cannot be read every question gets the fallback answer.
func (s *Service) Ask(ctx context.Context, query string) Answer {
	_ = ctx
	return s.chatMatcher().Match(query)
}

// KnowledgeBaseStatus returns the number of loaded questions and the load error, if any.
func (s *Service) KnowledgeBaseStatus() (int, error) {
	m := s.chatMatcher()
	s.kbMu.Lock()
	defer s.kbMu.Unlock()
	return m.KnowledgeBase().Len(), s.kbErr
}

// ReloadKnowledgeBase re-reads the knowledge document and replaces the matcher.
func (s *Service) ReloadKnowledgeBase() error {
	s.kbMu.Lock()
	defer s.kbMu.Unlock()
	s.matcher = nil
	s.kbErr = nil
	s.loadMatcherLocked()
	return s.kbErr
}

func (s *Service) chatMatcher() *Matcher {
	s.kbMu.Lock()
	defer s.kbMu.Unlock()
	if s.matcher == nil {
		s.loadMatcherLocked()
	}
	return s.matcher
}

func (s *Service) loadMatcherLocked() {
	chat := s.Config().Chat
	kb, err := LoadKnowledgeBase(chat.KnowledgeBase)
	if err != nil {
		s.logger.Error("knowledge base unavailable", zap.String("path", chat.KnowledgeBase), zap.Error(err))
	} else {
		s.logger.Info("knowledge base loaded", zap.String("path", chat.KnowledgeBase), zap.Int("entries", kb.Len()))
	}
	s.kbErr = err

	var analyzer Analyzer = WordAnalyzer{}
	if chat.TokenizerPath != "" {
		ta, terr := NewTokenizerAnalyzer(chat.TokenizerPath)
		if terr != nil {
			s.logger.Warn("tokenizer unavailable, using word analyzer", zap.String("path", chat.TokenizerPath), zap.Error(terr))
		} else {
			analyzer = ta
		}
	}
	s.matcher = NewMatcher(kb, MatcherOptions{
		MinScore: Score(chat.Threshold()),
		Fallback: chat.Fallback,
		Analyzer: analyzer,
		MemoSize: chat.MemoSize,
		MemoTTL:  chat.MemoTTL(),
	}, s.logger)
}

// UserMessage converts an error into the text shown to the user.
func UserMessage(err error) string {
	var catErr *CategoryError
	var shapeErr *ShapeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &catErr):
		return fmt.Sprintf("%q is not a valid choice for %s", catErr.Value, catErr.Feature)
	case errors.As(err, &shapeErr):
		return fmt.Sprintf("the model expects %d features but received %d", shapeErr.Want, shapeErr.Got)
	case errors.Is(err, ErrArtifactUnavailable):
		return "the prediction model could not be loaded, check the model store"
	default:
		return err.Error()
	}
}
