package handler

type ContextKey string

var (
	RoleCtxKey          ContextKey = "role"
	SubCtxKey           ContextKey = "sub"
	MyInfoCtx           ContextKey = "myInfo"
	UserInfoCtx         ContextKey = "userInfo"
	UnitCtx             ContextKey = "unit"
	ShiftDefinitionCtx  ContextKey = "shiftDefinition"
	RosterTemplateCtx   ContextKey = "rosterTemplate"
	RosterCtx           ContextKey = "roster"
	ShiftSwapRequestCtx ContextKey = "shiftSwapRequest"
)
