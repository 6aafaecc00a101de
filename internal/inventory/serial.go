package inventory

import "fmt"

// SuffixStyle 重複序號的改名方式
type SuffixStyle string

const (
	// SuffixDup 產生 SN-DUP1、SN-DUP2 (匯入與還原)
	SuffixDup SuffixStyle = "dup"
	// SuffixNumeric 產生 SN-1、SN-2 (舊資料搬移)
	SuffixNumeric SuffixStyle = "numeric"
)

func ParseSuffixStyle(s string) (SuffixStyle, error) {
	switch SuffixStyle(s) {
	case "", SuffixDup:
		return SuffixDup, nil
	case SuffixNumeric:
		return SuffixNumeric, nil
	}
	return "", fmt.Errorf("unknown suffix style %q (want dup or numeric)", s)
}

// SerialResolver 確保批次內與資料庫內的序號都不重複
type SerialResolver struct {
	style SuffixStyle
	used  map[string]struct{}
}

func NewSerialResolver(style SuffixStyle, existing []string) *SerialResolver {
	r := &SerialResolver{style: style, used: make(map[string]struct{}, len(existing))}
	for _, s := range existing {
		r.used[s] = struct{}{}
	}
	return r
}

// Resolve 回傳未使用的序號並記錄為已使用
func (r *SerialResolver) Resolve(serial string) string {
	candidate := serial
	for n := 1; r.taken(candidate); n++ {
		candidate = r.suffixed(serial, n)
	}
	r.used[candidate] = struct{}{}
	return candidate
}

// Release 插入失敗時釋放序號
func (r *SerialResolver) Release(serial string) {
	delete(r.used, serial)
}

func (r *SerialResolver) taken(s string) bool {
	_, ok := r.used[s]
	return ok
}

func (r *SerialResolver) suffixed(serial string, n int) string {
	if r.style == SuffixNumeric {
		return fmt.Sprintf("%s-%d", serial, n)
	}
	return fmt.Sprintf("%s-DUP%d", serial, n)
}
