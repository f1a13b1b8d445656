package speech

// Voice 可选择的声音
type Voice struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
}

// DisplayName 优先返回 Label，缺省时退回 ID
func (v Voice) DisplayName() string {
	if v.Label != "" {
		return v.Label
	}
	return v.ID
}
