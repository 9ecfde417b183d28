package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pml_bot/internal/logger"
	"pml_bot/internal/telegram/models"
	"pml_bot/internal/telegram/repository"
)

// SettingsServiceImpl 配置操作实现（命令层的唯一入口）
type SettingsServiceImpl struct {
	settingsRepo  repository.SettingsRepository
	cache         *SettingsCache
	monitoredRepo repository.MonitoredUserRepository
	dialogRepo    repository.DialogRepository
	tempRepo      repository.TempEntryRepository
	contacts      ContactDirectory
	now           func() time.Time
}

// NewSettingsService 创建配置服务
func NewSettingsService(
	settingsRepo repository.SettingsRepository,
	cache *SettingsCache,
	monitoredRepo repository.MonitoredUserRepository,
	dialogRepo repository.DialogRepository,
	tempRepo repository.TempEntryRepository,
	contacts ContactDirectory,
) *SettingsServiceImpl {
	return &SettingsServiceImpl{
		settingsRepo:  settingsRepo,
		cache:         cache,
		monitoredRepo: monitoredRepo,
		dialogRepo:    dialogRepo,
		tempRepo:      tempRepo,
		contacts:      contacts,
		now:           time.Now,
	}
}

// Status 读取当前全部开关与参数
func (s *SettingsServiceImpl) Status(ctx context.Context) (*models.Settings, error) {
	return s.settingsRepo.Get(ctx)
}

// SetRelayEnabled 开关转发
//
// 启用时把当前已知私聊对象整体写入对话快照——快照是激活时刻的
// 点时拷贝，之后不再同步，此后出现的联系人即为"新联系人"。
func (s *SettingsServiceImpl) SetRelayEnabled(ctx context.Context, enabled bool) (bool, error) {
	current, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return false, err
	}
	if current.RelayEnabled == enabled {
		return false, nil
	}

	if err := s.settingsRepo.SetRelayEnabled(ctx, enabled); err != nil {
		return false, err
	}
	s.invalidate()

	if enabled {
		ids, err := s.contacts.ListDialogIDs(ctx)
		if err != nil {
			return true, fmt.Errorf("failed to list current dialogs: %w", err)
		}
		if err := s.dialogRepo.ReplaceAll(ctx, ids); err != nil {
			return true, err
		}
		logger.L().Infof("Relay enabled, dialog snapshot rebuilt with %d contacts", len(ids))
	} else {
		logger.L().Info("Relay disabled")
	}

	return true, nil
}

// SetObservationWindow 设置新联系人观察窗口
func (s *SettingsServiceImpl) SetObservationWindow(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("window minutes must be >= 0, got %d", minutes)
	}
	if err := s.settingsRepo.SetWindowMinutes(ctx, minutes); err != nil {
		return err
	}
	s.invalidate()
	logger.L().Infof("Observation window set to %d minutes", minutes)
	return nil
}

// AddMonitored 加入永久监控名单
func (s *SettingsServiceImpl) AddMonitored(ctx context.Context, userID int64) (bool, error) {
	changed, err := s.monitoredRepo.Add(ctx, userID)
	if err != nil {
		return false, err
	}
	if changed {
		logger.L().Infof("User %d added to monitored list", userID)
	}
	return changed, nil
}

// RemoveMonitored 移出永久监控名单
func (s *SettingsServiceImpl) RemoveMonitored(ctx context.Context, userID int64) (bool, error) {
	changed, err := s.monitoredRepo.Remove(ctx, userID)
	if err != nil {
		return false, err
	}
	if changed {
		logger.L().Infof("User %d removed from monitored list", userID)
	}
	return changed, nil
}

// ListMonitored 列出永久名单与未过期的临时条目
func (s *SettingsServiceImpl) ListMonitored(ctx context.Context) ([]MonitoredStatus, error) {
	now := s.now()

	// 先清理过期行，避免剩余时长出现负值
	if err := s.tempRepo.PurgeExpired(ctx, now); err != nil {
		return nil, err
	}

	permanent, err := s.monitoredRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MonitoredStatus, 0, len(permanent))
	seen := make(map[int64]bool, len(permanent))
	for _, id := range permanent {
		statuses = append(statuses, MonitoredStatus{UserID: id})
		seen[id] = true
	}

	// 临时条目附带剩余分钟数；与永久名单重叠时永久身份优先
	tempEntries, err := s.tempRepo.ListLive(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, entry := range tempEntries {
		if seen[entry.UserID] {
			continue
		}
		remaining := entry.MinutesRemaining(now)
		statuses = append(statuses, MonitoredStatus{UserID: entry.UserID, MinutesRemaining: &remaining})
	}

	return statuses, nil
}

// SetCaptureEnabled 开关自动媒体捕获
func (s *SettingsServiceImpl) SetCaptureEnabled(ctx context.Context, enabled bool) (bool, error) {
	current, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return false, err
	}
	if current.CaptureEnabled == enabled {
		return false, nil
	}

	if err := s.settingsRepo.SetCaptureEnabled(ctx, enabled); err != nil {
		return false, err
	}
	s.invalidate()
	logger.L().Infof("Media capture enabled=%v", enabled)
	return true, nil
}

// AddTriggerWord 添加手动捕获触发词
func (s *SettingsServiceImpl) AddTriggerWord(ctx context.Context, word string) (bool, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return false, fmt.Errorf("trigger word cannot be empty")
	}

	changed, err := s.settingsRepo.AddTriggerWord(ctx, word)
	if err != nil {
		return false, err
	}
	if changed {
		s.invalidate()
	}
	return changed, nil
}

// RemoveTriggerWord 删除手动捕获触发词
func (s *SettingsServiceImpl) RemoveTriggerWord(ctx context.Context, word string) (bool, error) {
	changed, err := s.settingsRepo.RemoveTriggerWord(ctx, strings.TrimSpace(word))
	if err != nil {
		return false, err
	}
	if changed {
		s.invalidate()
	}
	return changed, nil
}

// ListTriggerWords 列出全部触发词
func (s *SettingsServiceImpl) ListTriggerWords(ctx context.Context) ([]string, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return settings.TriggerWords, nil
}

// ResolveContact 解析用户输入的联系人标识
// 纯数字按 ID 处理，其余按 username 查联系人目录；found=false 表示
// 无法解析，调用方应拒绝该命令且不改动任何状态。
func (s *SettingsServiceImpl) ResolveContact(ctx context.Context, identifier string) (int64, bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, false, nil
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return id, true, nil
	}

	return s.contacts.Resolve(ctx, identifier)
}

func (s *SettingsServiceImpl) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
