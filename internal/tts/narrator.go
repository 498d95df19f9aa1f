package tts

import (
	"context"
	"sync"
	"time"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
)

// Synthesizer turns prepared text into audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type cacheEntry struct {
	audio   []byte
	expires time.Time
}

// Narrator reads articles aloud and keeps the audio for ttl. Articles never
// change after publish, so the article ID is a sufficient cache key.
type Narrator struct {
	synth    Synthesizer
	maxChars int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewNarrator wraps synth. A zero ttl disables caching.
func NewNarrator(synth Synthesizer, maxChars int, ttl time.Duration) *Narrator {
	return &Narrator{
		synth:    synth,
		maxChars: maxChars,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// Article returns MP3 audio for a.
func (n *Narrator) Article(ctx context.Context, a *core.Article) ([]byte, error) {
	if audio, ok := n.cached(a.ID); ok {
		logger.Debug("Serving cached audio", "article_id", a.ID)
		return audio, nil
	}

	text := PrepareText(a.Title, a.Body, n.maxChars)
	audio, err := n.synth.Synthesize(ctx, text)
	metrics.RecordAttempt(metrics.StageSpeech, n.synth.Name(), err)
	if err != nil {
		logger.Error("Speech synthesis failed", err, "article_id", a.ID, "provider", n.synth.Name())
		return nil, err
	}
	logger.Info("Synthesized article audio", "article_id", a.ID, "chars", len(text), "bytes", len(audio))

	if n.ttl > 0 {
		n.mu.Lock()
		n.cache[a.ID] = cacheEntry{audio: audio, expires: n.now().Add(n.ttl)}
		n.mu.Unlock()
	}
	return audio, nil
}

func (n *Narrator) cached(id string) ([]byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	entry, ok := n.cache[id]
	if !ok {
		return nil, false
	}
	if !n.now().Before(entry.expires) {
		delete(n.cache, id)
		return nil, false
	}
	return entry.audio, true
}
