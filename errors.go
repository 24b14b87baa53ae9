package vigor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAirflowMode 無法辨識的風量模式標籤
	ErrUnknownAirflowMode = errors.New("無法辨識的風量模式")
	// ErrInvalidControlMode 控制模式超出 {0,1,2}
	ErrInvalidControlMode = errors.New("無效的控制模式")
	// ErrShortResponse 回應的暫存器數量少於請求
	ErrShortResponse = errors.New("回應暫存器數量不足")
	// ErrUnknownOperation Read 找不到此名稱的操作
	ErrUnknownOperation = errors.New("未知的操作")
)

// Access 暫存器存取方向
type Access int

const (
	AccessRead Access = iota
	AccessWrite
)

func (a Access) String() string {
	if a == AccessWrite {
		return "write"
	}
	return "read"
}

// TransportError 傳輸層回報的讀寫失敗，帶有操作名稱與暫存器位址
type TransportError struct {
	Op      string
	Address uint16
	Access  Access
	Err     error
}

func (e *TransportError) Error() string {
	verb := "讀取"
	if e.Access == AccessWrite {
		verb = "寫入"
	}
	return fmt.Sprintf("%s: %s暫存器 %d 失敗: %v", e.Op, verb, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsTransportError 取出錯誤鏈中的 TransportError
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
