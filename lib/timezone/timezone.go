package timezone

import "time"

// Location is the timezone the dining portal operates in, reservation
// weeks roll over according to this clock.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Tehran")
	if err != nil {
		// containers without tzdata, Tehran has not observed DST since 2022
		Location = time.FixedZone("IRST", int((3*time.Hour + 30*time.Minute).Seconds()))
	}
}

func Now() time.Time {
	return time.Now().In(Location)
}
