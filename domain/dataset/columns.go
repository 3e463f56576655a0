package dataset

// Column names fixed by the upstream datasets.
const (
	ColSubject  = "sid"
	ColSession  = "session"
	ColBehindX  = "s_x"
	ColAheadX   = "r_x"
	ColBehindY  = "s_y"
	ColAheadY   = "r_y"
	ColPosRecip = "q"
	ColNegRecip = "v"
	ColSelfX    = "self_x"
	ColOtherX   = "other_x"
	ColSelfY    = "self_y"
	ColOtherY   = "other_y"
	ColChoiceX  = "choice_x"

	ColWorker       = "wid"
	ColEffort       = "effort"
	ColWage         = "wage"
	ColNetDistance  = "netdistance"
	ColToday        = "today"
	ColPrediction   = "prediction"
	ColBonusOffered = "bonusoffered"
)

// SocialColumns are required for the discrete-choice model.
var SocialColumns = []string{
	ColSubject, ColBehindX, ColAheadX, ColBehindY, ColAheadY,
	ColPosRecip, ColNegRecip, ColSelfX, ColOtherX, ColSelfY, ColOtherY, ColChoiceX,
}

// EffortColumns are required for the effort-choice model.
var EffortColumns = []string{
	ColWorker, ColEffort, ColWage, ColNetDistance, ColToday, ColPrediction, ColBonusOffered,
}
