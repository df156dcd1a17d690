package handler

type ContextKey string

var (
	RoleCtxKey   ContextKey = "role"
	SubCtxKey    ContextKey = "sub"
	MyStaffCtx   ContextKey = "myStaff"
	StaffInfoCtx ContextKey = "staffInfo"
	ShiftCtx     ContextKey = "shift"
)
