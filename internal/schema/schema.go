// Package schema defines the wire records exchanged between the sensor
// fleet, the motor monitor, the cloud collector and the test driver.
package schema

// MotorFailure names a rule-evaluator outcome.
type MotorFailure uint8

const (
	// FailureNone means no rule fired.
	FailureNone MotorFailure = iota
	FailureHeatDissipation
	FailurePower
	FailureOverstrain
)

func (f MotorFailure) String() string {
	switch f {
	case FailureHeatDissipation:
		return "HeatDissipation"
	case FailurePower:
		return "Power"
	case FailureOverstrain:
		return "Overstrain"
	default:
		return "None"
	}
}

// ParseMotorFailure is the inverse of MotorFailure.String, used when
// reading a recorded alert_protocol.csv back into Alert values.
func ParseMotorFailure(s string) (MotorFailure, bool) {
	switch s {
	case "HeatDissipation":
		return FailureHeatDissipation, true
	case "Power":
		return FailurePower, true
	case "Overstrain":
		return FailureOverstrain, true
	case "None":
		return FailureNone, true
	default:
		return FailureNone, false
	}
}

// RPM names one of the four interchangeable request-processing models.
type RPM string

const (
	RPMReactiveStreaming RPM = "ReactiveStreaming"
	RPMClientServer      RPM = "ClientServer"
	RPMSpringQL          RPM = "SpringQL"
	RPMObjectOriented    RPM = "ObjectOriented"
)

// ParseRPM validates a command-line RPM tag.
func ParseRPM(s string) (RPM, bool) {
	switch RPM(s) {
	case RPMReactiveStreaming, RPMClientServer, RPMSpringQL, RPMObjectOriented:
		return RPM(s), true
	default:
		return "", false
	}
}

// SensorIndex names one of the four sensors a motor group carries.
type SensorIndex uint8

const (
	SensorAirTemperature SensorIndex = iota
	SensorProcessTemperature
	SensorRotationalSpeed
	SensorTorque
)

// SensorMessage is emitted once per sample by a sensor process.
type SensorMessage struct {
	Reading   float32 `msgpack:"reading"`
	SensorID  uint32  `msgpack:"sensor_id"`
	Timestamp float64 `msgpack:"timestamp"`
}

// MotorID returns the motor group this message belongs to.
func (m SensorMessage) MotorID() uint32 { return m.SensorID >> 2 }

// Index returns which of the four sensors in the motor group sent this.
func (m SensorMessage) Index() SensorIndex { return SensorIndex(m.SensorID & 0x3) }

// Alert is emitted by the monitor on a positive rule evaluation.
type Alert struct {
	Time    float64      `msgpack:"time"`
	MotorID uint16       `msgpack:"motor_id"`
	Failure MotorFailure `msgpack:"failure"`
}

// BenchmarkKind distinguishes which process emitted a BenchmarkData record.
type BenchmarkKind uint8

const (
	BenchmarkSensor BenchmarkKind = iota
	BenchmarkMotorMonitor
)

func (k BenchmarkKind) String() string {
	if k == BenchmarkMotorMonitor {
		return "MotorMonitor"
	}
	return "Sensor"
}

// BenchmarkData carries resource-usage counters, sampled once at process exit.
type BenchmarkData struct {
	ID                  uint32        `msgpack:"id"`
	UserTime            uint64        `msgpack:"user_time"`
	KernelTime          uint64        `msgpack:"kernel_time"`
	ChildrenUserTime    int64         `msgpack:"children_user_time"`
	ChildrenKernelTime  int64         `msgpack:"children_kernel_time"`
	PeakRSS             uint64        `msgpack:"peak_rss"`
	PeakVMem            uint64        `msgpack:"peak_vmem"`
	Kind                BenchmarkKind `msgpack:"kind"`
}

// SensorParameters configures a single sensor process (external collaborator;
// kept here because the monitor and the oracle both need to interpret it).
type SensorParameters struct {
	ID                  uint32  `msgpack:"id"`
	StartTime           float64 `msgpack:"start_time"`
	Duration            uint64  `msgpack:"duration"`
	Seed                uint32  `msgpack:"seed"`
	SamplingIntervalMs  uint32  `msgpack:"sampling_interval_ms"`
	RPM                 RPM     `msgpack:"rpm"`
	MotorMonitorAddress string  `msgpack:"motor_monitor_address"`
}

// MotorMonitorParameters configures a motor-monitor run.
type MotorMonitorParameters struct {
	StartTime                 float64 `msgpack:"start_time"`
	Duration                  uint64  `msgpack:"duration"`
	RPM                       RPM     `msgpack:"rpm"`
	NumberOfTCPMotorGroups    int     `msgpack:"number_of_tcp_motor_groups"`
	NumberOfI2CMotorGroups    int     `msgpack:"number_of_i2c_motor_groups"`
	WindowSizeMs              int64   `msgpack:"window_size_ms"`
	WindowSamplingIntervalMs  int64   `msgpack:"window_sampling_interval_ms"`
	SensorSamplingIntervalMs  int64   `msgpack:"sensor_sampling_interval_ms"`
	SensorListenAddress       string  `msgpack:"sensor_listen_address"`
	MotorMonitorListenAddress string  `msgpack:"motor_monitor_listen_address"`
	ThreadPoolSize            int     `msgpack:"thread_pool_size"`
}

// TotalMotorGroups is the number of motors this run monitors.
func (p MotorMonitorParameters) TotalMotorGroups() int {
	return p.NumberOfTCPMotorGroups + p.NumberOfI2CMotorGroups
}

// MotorDriverRunParameters configures the (external, out-of-scope) motor
// driver; kept here only because its fields are referenced by the oracle.
type MotorDriverRunParameters struct {
	StartTime                float64 `msgpack:"start_time"`
	Duration                 uint64  `msgpack:"duration"`
	NumberOfMotorGroups      int     `msgpack:"number_of_motor_groups"`
	WindowSizeMs             int64   `msgpack:"window_size_ms"`
	SensorSamplingIntervalMs int64   `msgpack:"sensor_sampling_interval_ms"`
	RPM                      RPM     `msgpack:"rpm"`
	SensorStartPort          uint16  `msgpack:"sensor_start_port"`
}

// CloudServerRunParameters configures a single benchmark run on the cloud
// collector's control connection.
type CloudServerRunParameters struct {
	StartTime           float64 `msgpack:"start_time"`
	Duration            uint64  `msgpack:"duration"`
	MotorMonitorAddress string  `msgpack:"motor_monitor_address"`
	RPM                 RPM     `msgpack:"rpm"`
}
