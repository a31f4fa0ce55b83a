package nexmorepo

type SendSMSReq struct {
	From string
	To   string
	Text string
}

type Repo interface {
	SendSMS(req SendSMSReq) error
}
