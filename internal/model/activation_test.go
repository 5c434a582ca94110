package model

import (
	"testing"
	"time"
)

func TestIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		expireAt *time.Time
		want     bool
	}{
		{name: "未バインドは到期扱いにしない", expireAt: nil, want: false},
		{name: "到期済み", expireAt: &past, want: true},
		{name: "未到期", expireAt: &future, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ActivationCode{ExpireAt: tt.expireAt}
			if got := c.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundToDevice(t *testing.T) {
	deviceA := "device-a"

	tests := []struct {
		name     string
		deviceID *string
		query    string
		want     bool
	}{
		{name: "端末未記録はどの端末とも衝突しない", deviceID: nil, query: "anything", want: true},
		{name: "同一端末", deviceID: &deviceA, query: "device-a", want: true},
		{name: "別端末", deviceID: &deviceA, query: "device-b", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ActivationCode{DeviceID: tt.deviceID}
			if got := c.BoundToDevice(tt.query); got != tt.want {
				t.Errorf("BoundToDevice(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewCodeExpiredError()
	if err.Error() != "[CODE_EXPIRED] 授権の有効期限が切れています。" {
		t.Errorf("Error() = %q", err.Error())
	}
}
