package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateStaffMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ShiftPublishedMailData struct {
	FullName  string `json:"fullName"`
	StartTime string `json:"startTime"` // 已格式化成门店本地时间
	EndTime   string `json:"endTime"`
	Note      string `json:"note"`
}
