package rohc

// FormatID enumerates the ~20 compressed packet formats of spec 4.4.
type FormatID int

const (
	FormatIR FormatID = iota
	FormatIRDYN
	FormatCoCommon
	FormatRnd1
	FormatRnd2
	FormatRnd3
	FormatRnd4
	FormatRnd5
	FormatRnd6
	FormatRnd7
	FormatRnd8
	FormatSeq1
	FormatSeq2
	FormatSeq3
	FormatSeq4
	FormatSeq5
	FormatSeq6
	FormatSeq7
	FormatSeq8
)

func (f FormatID) String() string {
	names := map[FormatID]string{
		FormatIR: "IR", FormatIRDYN: "IR-DYN", FormatCoCommon: "co_common",
		FormatRnd1: "rnd_1", FormatRnd2: "rnd_2", FormatRnd3: "rnd_3", FormatRnd4: "rnd_4",
		FormatRnd5: "rnd_5", FormatRnd6: "rnd_6", FormatRnd7: "rnd_7", FormatRnd8: "rnd_8",
		FormatSeq1: "seq_1", FormatSeq2: "seq_2", FormatSeq3: "seq_3", FormatSeq4: "seq_4",
		FormatSeq5: "seq_5", FormatSeq6: "seq_6", FormatSeq7: "seq_7", FormatSeq8: "seq_8",
	}
	return names[f]
}

// Common (k, p) windows used across the rnd_/seq_ family.
var (
	fieldMSN = Field{K: 4, P: 4}

	fieldIPID4p3 = Field{K: 4, P: 3}
	fieldIPID7p3 = Field{K: 7, P: 3}
	fieldIPID3p1 = Field{K: 3, P: 1}
	fieldIPID5p3 = Field{K: 5, P: 3}

	fieldSeq16p32767 = Field{K: 16, P: 32767}
	fieldAck16p16383 = Field{K: 16, P: 16383}
	fieldAck16p32767 = Field{K: 16, P: 32767}

	fieldSeqScaled4p7 = Field{K: 4, P: 7}
	fieldAckScaled4p3 = Field{K: 4, P: 3}

	fieldWindow15p16383 = Field{K: 15, P: 16383}

	fieldTTL3p3  = Field{K: 3, P: 3}
	fieldSeq14p8191 = Field{K: 14, P: 8191}
	fieldAck15p8191 = Field{K: 15, P: 8191}

	fieldSeq16full = Field{K: 16, P: 65535}
	fieldAck16full = Field{K: 16, P: 65535}
)

// deltaCheck captures one delta a candidate format needs to cover, used by the classifier to reject a candidate whose window
// does not actually reach the observed delta (spec 4.4's "the
// classifier must recheck, for every candidate, that every emitted
// field's LSB window actually covers the delta").
type deltaCheck struct {
	field Field
	ref   uint32
	value uint32
}

func (d deltaCheck) ok() bool { return d.field.Covers(d.ref, d.value) }
