package core

import (
	"testing"
	"time"

	"stock_screener/models"
)

func TestRegistryFieldsReturnsCopy(t *testing.T) {
	r := NewConfigRegistry()
	r.Seed(models.FilterTypeFundamental, []models.FilterField{
		{Key: "pe_ttm", Label: "市盈率"},
	})

	fields := r.Fields(models.FilterTypeFundamental)
	fields[0].Key = "changed"

	again := r.Fields(models.FilterTypeFundamental)
	if again[0].Key != "pe_ttm" {
		t.Error("Fields 返回的应是副本，外部修改不能影响注册表")
	}
}

func TestRegistryReplaceNotifiesSubscribers(t *testing.T) {
	r := NewConfigRegistry()
	ch := r.Subscribe()
	defer r.Unsubscribe(ch)

	fields := []models.FilterField{{Key: "pb", Label: "市净率"}}
	r.Replace(models.FilterTypeFS, fields)

	select {
	case update := <-ch:
		if update.Type != models.FilterTypeFS {
			t.Errorf("通知类型错误: %s", update.Type)
		}
		if len(update.Config) != 1 || update.Config[0].Key != "pb" {
			t.Errorf("通知内容错误: %v", update.Config)
		}
	case <-time.After(time.Second):
		t.Fatal("未收到配置变更通知")
	}
}

func TestRegistrySeedDoesNotNotify(t *testing.T) {
	r := NewConfigRegistry()
	ch := r.Subscribe()
	defer r.Unsubscribe(ch)

	r.Seed(models.FilterTypeFundamental, []models.FilterField{{Key: "dyr", Label: "股息率"}})

	select {
	case <-ch:
		t.Error("Seed 不应触发变更通知")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistryTypesAreIndependent(t *testing.T) {
	r := NewConfigRegistry()
	r.Replace(models.FilterTypeFundamental, []models.FilterField{{Key: "pe_ttm", Label: "市盈率"}})
	r.Replace(models.FilterTypeFS, []models.FilterField{{Key: "revenue", Label: "营收"}})

	if got := r.Fields(models.FilterTypeFundamental); len(got) != 1 || got[0].Key != "pe_ttm" {
		t.Errorf("基本面配置错误: %v", got)
	}
	if got := r.Fields(models.FilterTypeFS); len(got) != 1 || got[0].Key != "revenue" {
		t.Errorf("财报配置错误: %v", got)
	}
}

func TestRegistryUnsubscribeClosesChannel(t *testing.T) {
	r := NewConfigRegistry()
	ch := r.Subscribe()
	r.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("取消订阅后通道应关闭")
	}

	// 取消订阅后的替换不应panic
	r.Replace(models.FilterTypeFundamental, nil)
}
