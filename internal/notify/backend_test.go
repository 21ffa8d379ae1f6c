package notify

type notifyCall struct {
	title    string
	message  string
	iconPath string
}

// recordingBackend records notifications instead of showing them.
type recordingBackend struct {
	err         error
	notifyCalls []notifyCall
	alertCalls  []notifyCall
}

func (r *recordingBackend) Notify(title, message, iconPath string) error {
	r.notifyCalls = append(r.notifyCalls, notifyCall{title, message, iconPath})
	return r.err
}

func (r *recordingBackend) Alert(title, message, iconPath string) error {
	r.alertCalls = append(r.alertCalls, notifyCall{title, message, iconPath})
	return r.err
}
