package tracking

import "testing"

func TestArrivalMessage(t *testing.T) {
	msg := arrivalMessage("tok", ArrivalNotice{JobID: "job-1", LandscaperID: "land-1", DwellSeconds: 121.4})
	if msg.Token != "tok" {
		t.Errorf("token = %q", msg.Token)
	}
	if msg.Data["type"] != "landscaper_arrived" || msg.Data["job_id"] != "job-1" || msg.Data["dwell_seconds"] != "121" {
		t.Errorf("data = %v", msg.Data)
	}
	if msg.Notification == nil || msg.Android == nil || msg.Android.Priority != "high" {
		t.Errorf("incomplete message: %+v", msg)
	}
}
