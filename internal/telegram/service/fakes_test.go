package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pml_bot/internal/telegram/models"
)

// 内存版仓储与端口，替代 MongoDB 和 Bot API

type fakeSettingsProvider struct {
	settings *models.Settings
	err      error
}

func (f *fakeSettingsProvider) Get(ctx context.Context) (*models.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

type fakeMonitoredRepo struct {
	ids map[int64]bool
}

func newFakeMonitoredRepo(ids ...int64) *fakeMonitoredRepo {
	m := make(map[int64]bool)
	for _, id := range ids {
		m[id] = true
	}
	return &fakeMonitoredRepo{ids: m}
}

func (f *fakeMonitoredRepo) List(ctx context.Context) ([]int64, error) {
	out := make([]int64, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeMonitoredRepo) Add(ctx context.Context, userID int64) (bool, error) {
	if f.ids[userID] {
		return false, nil
	}
	f.ids[userID] = true
	return true, nil
}

func (f *fakeMonitoredRepo) Remove(ctx context.Context, userID int64) (bool, error) {
	if !f.ids[userID] {
		return false, nil
	}
	delete(f.ids, userID)
	return true, nil
}

func (f *fakeMonitoredRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeDialogRepo struct {
	mu       sync.Mutex
	ids      map[int64]bool
	replaced [][]int64
}

func newFakeDialogRepo(ids ...int64) *fakeDialogRepo {
	m := make(map[int64]bool)
	for _, id := range ids {
		m[id] = true
	}
	return &fakeDialogRepo{ids: m}
}

func (f *fakeDialogRepo) ReplaceAll(ctx context.Context, userIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = make(map[int64]bool)
	for _, id := range userIDs {
		f.ids[id] = true
	}
	f.replaced = append(f.replaced, userIDs)
	return nil
}

func (f *fakeDialogRepo) Add(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[userID] = true
	return nil
}

func (f *fakeDialogRepo) Contains(ctx context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[userID], nil
}

func (f *fakeDialogRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeTempRepo struct {
	mu      sync.Mutex
	entries map[int64]time.Time
}

func newFakeTempRepo() *fakeTempRepo {
	return &fakeTempRepo{entries: make(map[int64]time.Time)}
}

func (f *fakeTempRepo) PurgeExpired(ctx context.Context, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, expiry := range f.entries {
		if expiry.Before(now) {
			delete(f.entries, id)
		}
	}
	return nil
}

func (f *fakeTempRepo) Contains(ctx context.Context, userID int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expiry, ok := f.entries[userID]
	return ok && !expiry.Before(now), nil
}

func (f *fakeTempRepo) Upsert(ctx context.Context, userID int64, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[userID] = expiresAt
	return nil
}

func (f *fakeTempRepo) ExpiryOf(ctx context.Context, userID int64) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expiry, ok := f.entries[userID]
	if !ok {
		return nil, nil
	}
	return &expiry, nil
}

func (f *fakeTempRepo) ListLive(ctx context.Context, now time.Time) ([]*models.TempEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TempEntry
	for id, expiry := range f.entries {
		if !expiry.Before(now) {
			out = append(out, &models.TempEntry{UserID: id, ExpiresAt: expiry})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeTempRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeMapRepo struct {
	mu       sync.Mutex
	mappings map[string]*models.MessageMap
}

func newFakeMapRepo() *fakeMapRepo {
	return &fakeMapRepo{mappings: make(map[string]*models.MessageMap)}
}

func mapKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d/%d", chatID, messageID)
}

func (f *fakeMapRepo) Record(ctx context.Context, m *models.MessageMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	f.mappings[mapKey(m.ChatID, m.MessageID)] = m
	return nil
}

func (f *fakeMapRepo) Lookup(ctx context.Context, chatID int64, messageID int) (*models.MessageMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mappings[mapKey(chatID, messageID)], nil
}

func (f *fakeMapRepo) Remove(ctx context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mappings, mapKey(chatID, messageID))
	return nil
}

func (f *fakeMapRepo) EnsureIndexes(ctx context.Context, retentionDays int) error { return nil }

type fakeContactRepo struct {
	contacts map[int64]*models.Contact
}

func newFakeContactRepo(contacts ...*models.Contact) *fakeContactRepo {
	m := make(map[int64]*models.Contact)
	for _, c := range contacts {
		m[c.UserID] = c
	}
	return &fakeContactRepo{contacts: m}
}

func (f *fakeContactRepo) Upsert(ctx context.Context, c *models.Contact) error {
	f.contacts[c.UserID] = c
	return nil
}

func (f *fakeContactRepo) GetByUserID(ctx context.Context, userID int64) (*models.Contact, error) {
	return f.contacts[userID], nil
}

func (f *fakeContactRepo) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	for _, c := range f.contacts {
		if c.Username == username {
			return c.UserID, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeContactRepo) ListIDs(ctx context.Context) ([]int64, error) {
	out := make([]int64, 0, len(f.contacts))
	for id := range f.contacts {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeContactRepo) EnsureIndexes(ctx context.Context) error { return nil }

type relayedCall struct {
	target int64
	msg    *IncomingMessage
}

type notifyCall struct {
	target  int64
	text    string
	replyTo int
}

type fakeRelayPort struct {
	mu        sync.Mutex
	nextID    int
	relayErr  error
	notifyErr error
	relayed   []relayedCall
	notified  []notifyCall
}

func (f *fakeRelayPort) Relay(ctx context.Context, target int64, msg *IncomingMessage) (int, error) {
	if f.relayErr != nil {
		return 0, f.relayErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relayed = append(f.relayed, relayedCall{target: target, msg: msg})
	f.nextID++
	return 1000 + f.nextID, nil
}

func (f *fakeRelayPort) Notify(ctx context.Context, target int64, text string, replyTo int) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notified = append(f.notified, notifyCall{target: target, text: text, replyTo: replyTo})
	return nil
}

type fakeMediaPort struct {
	data        []byte
	filename    string
	downloadErr error
	uploadErr   error
	downloads   []string
	uploads     []*CapturedMedia
}

func (f *fakeMediaPort) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	if f.downloadErr != nil {
		return nil, "", f.downloadErr
	}
	f.downloads = append(f.downloads, fileID)
	return f.data, f.filename, nil
}

func (f *fakeMediaPort) Upload(ctx context.Context, target int64, media *CapturedMedia) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, media)
	return nil
}

type fakeDirectory struct {
	byName    map[string]int64
	dialogIDs []int64
}

func (f *fakeDirectory) Resolve(ctx context.Context, identifier string) (int64, bool, error) {
	id, ok := f.byName[identifier]
	return id, ok, nil
}

func (f *fakeDirectory) ListDialogIDs(ctx context.Context) ([]int64, error) {
	return f.dialogIDs, nil
}

type fakeSettingsRepo struct {
	settings *models.Settings
}

func newFakeSettingsRepo(s *models.Settings) *fakeSettingsRepo {
	if s == nil {
		s = models.DefaultSettings()
	}
	return &fakeSettingsRepo{settings: s}
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	copied := *f.settings
	return &copied, nil
}

func (f *fakeSettingsRepo) SetRelayEnabled(ctx context.Context, enabled bool) error {
	f.settings.RelayEnabled = enabled
	return nil
}

func (f *fakeSettingsRepo) SetCaptureEnabled(ctx context.Context, enabled bool) error {
	f.settings.CaptureEnabled = enabled
	return nil
}

func (f *fakeSettingsRepo) SetWindowMinutes(ctx context.Context, minutes int) error {
	f.settings.WindowMinutes = minutes
	return nil
}

func (f *fakeSettingsRepo) AddTriggerWord(ctx context.Context, word string) (bool, error) {
	for _, w := range f.settings.TriggerWords {
		if w == word {
			return false, nil
		}
	}
	f.settings.TriggerWords = append(f.settings.TriggerWords, word)
	return true, nil
}

func (f *fakeSettingsRepo) RemoveTriggerWord(ctx context.Context, word string) (bool, error) {
	for i, w := range f.settings.TriggerWords {
		if w == word {
			f.settings.TriggerWords = append(f.settings.TriggerWords[:i], f.settings.TriggerWords[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
