package timecodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleTimes() []time.Time {
	base := time.Date(2019, time.March, 10, 1, 59, 59, 123456000, time.UTC)
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("PST", -8*3600),
		time.FixedZone("IST", 5*3600+1800),
		time.FixedZone("CHAST", 12*3600+2700),
		time.FixedZone("", -11*3600),
	}
	out := make([]time.Time, 0, len(zones)*3)
	for _, zone := range zones {
		out = append(out,
			base.In(zone),
			time.Date(2000, time.January, 1, 0, 0, 0, 0, zone),
			time.Date(2038, time.January, 19, 3, 14, 7, 999999000, zone),
		)
	}
	return out
}

func TestCodecRoundTripNormalisesToUTC(t *testing.T) {
	for _, naive := range []bool{false, true} {
		codec := Codec{Naive: naive}
		for _, ts := range sampleTimes() {
			decoded, err := codec.Decode(codec.Encode(ts))
			require.NoError(t, err)
			require.Equal(t, time.UTC, decoded.Location())
			require.True(t, decoded.Equal(ts), "naive=%v input=%s got=%s", naive, ts, decoded)
			require.Equal(t, ts.UTC(), decoded)
		}
	}
}

func TestNaiveEncodeStripsZone(t *testing.T) {
	codec := Codec{Naive: true}
	ts := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	stored := codec.Encode(ts)
	require.Equal(t, "2024-05-01 08:00:00.000000", stored)
}

func TestAwareEncodeConvertsToUTC(t *testing.T) {
	codec := Codec{}
	ts := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	stored, ok := codec.Encode(ts).(time.Time)
	require.True(t, ok)
	require.Equal(t, time.UTC, stored.Location())
	require.Equal(t, 8, stored.Hour())
}

func TestDecodeDriverRepresentations(t *testing.T) {
	want := time.Date(2021, time.July, 4, 12, 30, 0, 0, time.UTC)
	inputs := []interface{}{
		"2021-07-04 12:30:00.000000",
		[]byte("2021-07-04 12:30:00"),
		"2021-07-04T14:30:00+02:00",
		want.In(time.FixedZone("X", 3600)),
	}
	for _, in := range inputs {
		got, err := Decode(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("yesterday")
	require.Error(t, err)
	_, err = Decode(nil)
	require.Error(t, err)
	_, err = Decode(42)
	require.Error(t, err)
}

func TestUTCTimeScan(t *testing.T) {
	var u UTCTime
	require.NoError(t, u.Scan("2022-02-02 02:02:02.000002"))
	require.Equal(t, time.Date(2022, time.February, 2, 2, 2, 2, 2000, time.UTC), u.Time)
}

func TestEncodeTruncatesToMicroseconds(t *testing.T) {
	ts := time.Date(2024, time.June, 1, 9, 0, 0, 123456789, time.UTC)
	for _, naive := range []bool{false, true} {
		codec := Codec{Naive: naive}
		decoded, err := codec.Decode(codec.Encode(ts))
		require.NoError(t, err)
		require.Equal(t, time.Date(2024, time.June, 1, 9, 0, 0, 123456000, time.UTC), decoded)
		require.Equal(t, ts.Truncate(Precision), decoded)
	}
	require.Equal(t, "2024-06-01 09:00:00.123456", Codec{Naive: true}.Encode(ts))
}
