package gosam

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Binary codec for Values: an explicit, versioned format with one type tag
// per entry. Version bumps are backwards compatible at the decoder.

const codecVersion byte = 1

const (
	tagPoint2 byte = iota + 1
	tagPoint3
	tagRot3
	tagPose2
	tagPose3
	tagCalibratedCamera
	tagPinholeCamera
)

// valuePayload flattens a value to its type tag and raw coordinates. The
// payload is the full embedding (e.g. nine entries for a rotation matrix),
// not the tangent representation, so decoding is exact.
func valuePayload(val Value) (byte, []float64, error) {
	switch v := val.(type) {
	case Point2:
		return tagPoint2, v.Vector(), nil
	case Point3:
		return tagPoint3, v.Vector(), nil
	case Rot3:
		return tagRot3, rot3Entries(v), nil
	case Pose2:
		return tagPose2, []float64{v.X, v.Y, v.Theta}, nil
	case Pose3:
		return tagPose3, pose3Entries(v), nil
	case CalibratedCamera:
		return tagCalibratedCamera, pose3Entries(v.pose), nil
	case PinholeCamera:
		return tagPinholeCamera, append(pose3Entries(v.pose), v.cal.Vector()...), nil
	default:
		return 0, nil, fmt.Errorf("cannot encode value of type %T", val)
	}
}

func rot3Entries(R Rot3) []float64 {
	out := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = R.At(i, j)
		}
	}
	return out
}

func pose3Entries(p Pose3) []float64 {
	return append(rot3Entries(p.R), p.T.X, p.T.Y, p.T.Z)
}

func rot3FromEntries(e []float64) Rot3 {
	return NewRot3(e[0], e[1], e[2], e[3], e[4], e[5], e[6], e[7], e[8])
}

func pose3FromEntries(e []float64) Pose3 {
	return NewPose3(rot3FromEntries(e[:9]), Point3{e[9], e[10], e[11]})
}

// payloadDim returns the expected payload length for a tag.
func payloadDim(tag byte) (int, error) {
	switch tag {
	case tagPoint2:
		return 2, nil
	case tagPoint3:
		return 3, nil
	case tagRot3:
		return 9, nil
	case tagPose2:
		return 3, nil
	case tagPose3, tagCalibratedCamera:
		return 12, nil
	case tagPinholeCamera:
		return 16, nil
	default:
		return 0, fmt.Errorf("unknown value tag %d", tag)
	}
}

func valueFromPayload(tag byte, e []float64) Value {
	switch tag {
	case tagPoint2:
		return Point2{e[0], e[1]}
	case tagPoint3:
		return Point3{e[0], e[1], e[2]}
	case tagRot3:
		return rot3FromEntries(e)
	case tagPose2:
		return Pose2{e[0], e[1], e[2]}
	case tagPose3:
		return pose3FromEntries(e)
	case tagCalibratedCamera:
		return CalibratedCamera{pose3FromEntries(e)}
	case tagPinholeCamera:
		return PinholeCamera{pose3FromEntries(e[:12]), Cal3{e[12], e[13], e[14], e[15]}}
	}
	return nil
}

// Encode writes the container in the versioned binary format, entries in key
// order.
func (v Values) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, codecVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(v.Size())); err != nil {
		return err
	}
	for _, k := range v.Keys() {
		tag, payload, err := valuePayload(v.values[k])
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(k)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, tag); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, payload); err != nil {
			return err
		}
	}
	return nil
}

// DecodeValues reads a container written by Encode.
func DecodeValues(r io.Reader) (Values, error) {
	var version byte
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Values{}, err
	}
	if version != codecVersion {
		return Values{}, fmt.Errorf("unsupported values format version %d", version)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Values{}, err
	}
	out := NewValues()
	for i := uint32(0); i < count; i++ {
		var key uint64
		if err := binary.Read(r, binary.LittleEndian, &key); err != nil {
			return Values{}, err
		}
		var tag byte
		if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
			return Values{}, err
		}
		dim, err := payloadDim(tag)
		if err != nil {
			return Values{}, fmt.Errorf("decode %s: %w", Key(key), err)
		}
		payload := make([]float64, dim)
		if err := binary.Read(r, binary.LittleEndian, payload); err != nil {
			return Values{}, err
		}
		if err := out.Insert(Key(key), valueFromPayload(tag, payload)); err != nil {
			return Values{}, err
		}
	}
	return out, nil
}
