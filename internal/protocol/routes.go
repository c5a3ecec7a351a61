package protocol

// Wire methods. Every frame carries an integer "m"; method 1 frames also
// carry an integer route "r", and gameplay frames (method 2) use their own
// route space.
const (
	MethodLobby     = 1
	MethodGame      = 2
	MethodHeartbeat = 5
)

// Lobby routes (m=1).
const (
	RouteLoginResult = 1
	RouteRoomList    = 2
	RouteRoomRefresh = 3
	RouteJoinRoom    = 4
	RouteExitRoom    = 5
	RouteReady       = 6
	RouteDismissRoom = 7
	RouteRoomState   = 8
	RouteLogin       = 9
	RouteChallenge   = 10
	RouteRoundPhase  = 13
)

// Game routes (m=2).
const (
	GameRouteDeal    = 1
	GameRouteDiscard = 2
	GameRouteDraw    = 6
	GameRouteDecline = 9
	GameRouteSeat    = 14
	GameRouteResult  = 17
)
