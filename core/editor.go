package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stock_screener/models"
)

// Backend 编辑器依赖的后端调用
type Backend interface {
	// TestFilterKeys 把指标 key 集合发给后端做校验请求，返回原始 JSON 响应体
	TestFilterKeys(keys []string, date string) (string, error)
	// SaveFilterConfig 持久化整组筛选项配置
	SaveFilterConfig(fields []models.FilterField, filterType string) error
}

// 行状态
type RowState string

const (
	RowDisplay RowState = "display" // 展示态
	RowEditing RowState = "editing" // 编辑态
)

// Row 编辑器中的一行。Field 为已确认值；编辑态下 Draft 持有未确认的修改，
// 取消时丢弃；IsNew 表示该行从未确认过，取消即整行移除。
type Row struct {
	Field models.FilterField
	Draft models.FilterField
	State RowState
	IsNew bool
}

// effective 当前参与冲突检查与保存的值：展示态取已确认值，编辑态取草稿
func (r *Row) effective() models.FilterField {
	if r.State == RowEditing {
		return r.Draft
	}
	return r.Field
}

// ErrRequestInFlight 已有 test/save 请求未返回，拒绝重复触发
var ErrRequestInFlight = errors.New("已有请求正在进行中，请稍候")

// Editor 筛选项配置编辑器。在本地副本上增删改，
// 仅在显式保存成功后才写回注册表；取消不影响任何已提交状态。
type Editor struct {
	filterType string
	backend    Backend
	registry   *ConfigRegistry

	mu   sync.Mutex
	rows []Row

	inflightMu sync.Mutex
	inflight   string // 在途请求标识，空串表示空闲
}

// NewEditor 打开编辑器，从注册表装入当前配置的本地副本
func NewEditor(filterType string, backend Backend, registry *ConfigRegistry) *Editor {
	fields := registry.Fields(filterType)
	rows := make([]Row, len(fields))
	for i := range fields {
		rows[i] = Row{Field: fields[i], State: RowDisplay}
	}
	return &Editor{
		filterType: filterType,
		backend:    backend,
		registry:   registry,
		rows:       rows,
	}
}

// Rows 当前行列表的副本
func (e *Editor) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// Add 在头部插入一个空行并置为编辑态，返回其下标
func (e *Editor) Add() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	row := Row{State: RowEditing, IsNew: true}
	e.rows = append([]Row{row}, e.rows...)
	return 0
}

// Edit 将一行切到编辑态，草稿以当前值填充
func (e *Editor) Edit(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return err
	}
	row := &e.rows[index]
	if row.State == RowEditing {
		return nil
	}
	row.State = RowEditing
	row.Draft = row.Field
	return nil
}

// UpdateDraft 更新编辑态行的草稿内容
func (e *Editor) UpdateDraft(index int, label, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return err
	}
	row := &e.rows[index]
	if row.State != RowEditing {
		return fmt.Errorf("第 %d 行不在编辑态", index+1)
	}
	row.Draft.Label = label
	row.Draft.Key = key
	return nil
}

// Confirm 确认一行的草稿：非空、与其他行不冲突，成功后回填
// minId/maxId 并回到展示态；失败时行状态不变。
func (e *Editor) Confirm(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return err
	}
	row := &e.rows[index]
	if row.State != RowEditing {
		return fmt.Errorf("第 %d 行不在编辑态", index+1)
	}

	key := strings.TrimSpace(row.Draft.Key)
	label := strings.TrimSpace(row.Draft.Label)
	if key == "" || label == "" {
		return errors.New("指标名称和指标标识不能为空")
	}

	for i := range e.rows {
		if i == index {
			continue
		}
		other := e.rows[i].effective()
		if strings.TrimSpace(other.Key) == key {
			return fmt.Errorf("指标标识已存在: %s", key)
		}
		if strings.TrimSpace(other.Label) == label {
			return fmt.Errorf("指标名称已存在: %s", label)
		}
	}

	row.Field = models.FilterField{Key: key, Label: label}
	row.Field.FillIDs()
	row.State = RowDisplay
	row.IsNew = false
	return nil
}

// Cancel 放弃一行的编辑：新行整行移除，已有行恢复原值
func (e *Editor) Cancel(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return err
	}
	row := &e.rows[index]
	if row.State != RowEditing {
		return nil
	}
	if row.IsNew {
		e.rows = append(e.rows[:index], e.rows[index+1:]...)
		return nil
	}
	row.State = RowDisplay
	row.Draft = models.FilterField{}
	return nil
}

// Delete 删除一行，必须带用户确认
func (e *Editor) Delete(index int, confirmed bool) error {
	if !confirmed {
		return errors.New("删除操作需要用户确认")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return err
	}
	e.rows = append(e.rows[:index], e.rows[index+1:]...)
	return nil
}

// Test 把已填写完整的行的 key 集合发给后端做校验，
// 返回原始响应或错误文本，不改动任何已提交状态。
func (e *Editor) Test(date string) (string, error) {
	token, err := e.beginRequest()
	if err != nil {
		return "", err
	}
	defer e.endRequest(token)

	fields := e.populatedFields()
	if len(fields) == 0 {
		return "", errors.New("至少需要一个填写完整的筛选项")
	}

	keys := make([]string, len(fields))
	for i := range fields {
		keys[i] = fields[i].Key
	}

	body, err := e.backend.TestFilterKeys(keys, date)
	if err != nil {
		logrus.Warnf("筛选项测试请求失败: %v", err)
		return "", err
	}
	return body, nil
}

// Save 过滤出填写完整的行，整组查重、回填 minId/maxId 后持久化；
// 仅在后端保存成功后才替换注册表中的配置，失败时本地与全局状态均不变。
func (e *Editor) Save() error {
	token, err := e.beginRequest()
	if err != nil {
		return err
	}
	defer e.endRequest(token)

	fields := e.populatedFields()
	if err := models.ValidateFilterConfig(fields); err != nil {
		return err
	}
	for i := range fields {
		fields[i].FillIDs()
	}

	if err := e.backend.SaveFilterConfig(fields, e.filterType); err != nil {
		logrus.Errorf("保存筛选项配置失败: %v", err)
		return err
	}

	e.mu.Lock()
	rows := make([]Row, len(fields))
	for i := range fields {
		rows[i] = Row{Field: fields[i], State: RowDisplay}
	}
	e.rows = rows
	e.mu.Unlock()

	e.registry.Replace(e.filterType, fields)
	logrus.Infof("筛选项配置已保存并生效，类型: %s，共 %d 项", e.filterType, len(fields))
	return nil
}

// populatedFields 所有填写完整的行的有效值（去首尾空格）
func (e *Editor) populatedFields() []models.FilterField {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := make([]models.FilterField, 0, len(e.rows))
	for i := range e.rows {
		f := e.rows[i].effective()
		f.Key = strings.TrimSpace(f.Key)
		f.Label = strings.TrimSpace(f.Label)
		if f.Key != "" && f.Label != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func (e *Editor) checkIndex(index int) error {
	if index < 0 || index >= len(e.rows) {
		return fmt.Errorf("行下标越界: %d", index)
	}
	return nil
}

// beginRequest 抢占在途请求标识，已有请求未返回时拒绝
func (e *Editor) beginRequest() (string, error) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	if e.inflight != "" {
		return "", ErrRequestInFlight
	}
	e.inflight = uuid.NewString()
	return e.inflight, nil
}

func (e *Editor) endRequest(token string) {
	e.inflightMu.Lock()
	if e.inflight == token {
		e.inflight = ""
	}
	e.inflightMu.Unlock()
}
