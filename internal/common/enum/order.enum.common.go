package enum

/*----------- OrderStepEnum -----------*/

type OrderStepEnum string

const (
	STEP_IDLE       OrderStepEnum = "idle"
	STEP_RECORDING  OrderStepEnum = "recording"
	STEP_PROCESSING OrderStepEnum = "processing"
	STEP_REVIEWING  OrderStepEnum = "reviewing"
	STEP_CONFIRMED  OrderStepEnum = "confirmed"
)

func (e OrderStepEnum) ToString() string {
	return string(e)
}

// Ordinal is the position of the step in the workflow, or -1.
func (e OrderStepEnum) Ordinal() int {
	switch e {
	case STEP_IDLE:
		return 0
	case STEP_RECORDING:
		return 1
	case STEP_PROCESSING:
		return 2
	case STEP_REVIEWING:
		return 3
	case STEP_CONFIRMED:
		return 4
	}
	return -1
}

// Label is the status line shown next to the progress bar.
func (e OrderStepEnum) Label() string {
	switch e {
	case STEP_IDLE:
		return "Ready to take your order"
	case STEP_RECORDING:
		return "Recording"
	case STEP_PROCESSING:
		return "Processing with AI"
	case STEP_REVIEWING:
		return "Review extracted data"
	case STEP_CONFIRMED:
		return "Order confirmed"
	}
	return ""
}

func (e OrderStepEnum) IsValid() bool {
	return e.Ordinal() >= 0
}

/*----------- DemoModeEnum -----------*/

type DemoModeEnum string

const (
	MODE_SIMPLE   DemoModeEnum = "simple"
	MODE_ENHANCED DemoModeEnum = "enhanced"
)

func (e DemoModeEnum) ToString() string {
	return string(e)
}

func (e DemoModeEnum) IsValid() bool {
	switch e {
	case MODE_SIMPLE, MODE_ENHANCED:
		return true
	}
	return false
}

/*----------- TransactionStatusEnum -----------*/

type TransactionStatusEnum string

const (
	TRX_SUCCESS TransactionStatusEnum = "success"
	TRX_FAILED  TransactionStatusEnum = "failed"
	TRX_PENDING TransactionStatusEnum = "pending"
)

func (e TransactionStatusEnum) ToString() string {
	return string(e)
}

func (e TransactionStatusEnum) IsValid() bool {
	switch e {
	case TRX_SUCCESS, TRX_FAILED, TRX_PENDING:
		return true
	}
	return false
}

/*----------- PermissionEnum -----------*/

type PermissionEnum string

const (
	PERMISSION_UNKNOWN PermissionEnum = "unknown"
	PERMISSION_GRANTED PermissionEnum = "granted"
	PERMISSION_DENIED  PermissionEnum = "denied"
)

func (e PermissionEnum) IsValid() bool {
	switch e {
	case PERMISSION_UNKNOWN, PERMISSION_GRANTED, PERMISSION_DENIED:
		return true
	}
	return false
}

/*----------- NotificationKindEnum -----------*/

type NotificationKindEnum string

const (
	NOTIFY_INFO    NotificationKindEnum = "info"
	NOTIFY_SUCCESS NotificationKindEnum = "success"
	NOTIFY_ERROR   NotificationKindEnum = "error"
)
