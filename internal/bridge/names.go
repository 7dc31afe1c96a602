package bridge

// Command names.
const (
	CmdStart           = "bot:start"
	CmdStop            = "bot:stop"
	CmdRefreshQRCode   = "bot:refreshQrcode"
	CmdStatus          = "bot:status"
	CmdQRCode          = "bot:qrcode"
	CmdUserInfo        = "bot:getUserInfo"
	CmdStats           = "bot:getStats"
	CmdFriends         = "bot:getFriends"
	CmdRefreshFriends  = "bot:refreshFriends"
	CmdRooms           = "bot:getRooms"
	CmdRefreshRooms    = "bot:refreshRooms"
	CmdMessages        = "bot:getMessages"
	CmdAutoReplies     = "bot:getAutoReplies"
	CmdAddAutoReply    = "bot:addAutoReply"
	CmdUpdateAutoReply = "bot:updateAutoReply"
	CmdDeleteAutoReply = "bot:deleteAutoReply"
	CmdToggleAutoReply = "bot:toggleAutoReply"
	CmdKnowledge       = "bot:getKnowledge"
	CmdAddKnowledge    = "bot:addKnowledge"
)

// Event names pushed to the observer.
const (
	EventScan         = "bot:scan"
	EventLoggedIn     = "bot:logged-in"
	EventUser         = "bot:user"
	EventReady        = "bot:ready"
	EventLogout       = "bot:logout"
	EventNewMessage   = "bot:new-message"
	EventStatsUpdated = "bot:stats-updated"
	EventStateChanged = "bot:state-changed"
)
