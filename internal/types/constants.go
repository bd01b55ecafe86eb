package types

const ContextUserKey = "user"

// Organisation roles within a project.
const (
	RoleLeadImplementer = 1
	RolePartner         = 2
	RoleDonor           = 3
	RoleCustomer        = 4

	LeadRole = RoleLeadImplementer
)

var OrganisationRoles = map[int]string{
	RoleLeadImplementer: "Lead Implementer",
	RolePartner:         "Partner",
	RoleDonor:           "Donor",
	RoleCustomer:        "Customer",
}

// Task statuses.
const (
	TaskStatusNew       = 2
	TaskStatusAssigned  = 3
	TaskStatusOnHold    = 4
	TaskStatusFeedback  = 5
	TaskStatusCancelled = 6
	TaskStatusBlocked   = 7
	TaskStatusCompleted = 8
)

var TaskStatuses = map[int]string{
	TaskStatusNew:       "New",
	TaskStatusAssigned:  "Assigned",
	TaskStatusOnHold:    "On Hold",
	TaskStatusFeedback:  "Feedback",
	TaskStatusCancelled: "Cancelled",
	TaskStatusBlocked:   "Blocked",
	TaskStatusCompleted: "Completed",
}

// TaskActiveStatuses are the statuses of tasks still needing work.
var TaskActiveStatuses = []int{TaskStatusNew, TaskStatusAssigned, TaskStatusFeedback, TaskStatusBlocked}

// Task priorities.
const (
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityNormal = 3
	PriorityLow    = 4
)

var TaskPriorities = map[int]string{
	PriorityUrgent: "Urgent",
	PriorityHigh:   "High",
	PriorityNormal: "Normal",
	PriorityLow:    "Low",
}

// HFAPriorities are the Hyogo Framework for Action priorities a DRR
// project can address.
var HFAPriorities = map[int]string{
	1: "HFA1: Ensure that disaster risk reduction is a national and a local priority with a strong institutional basis for implementation.",
	2: "HFA2: Identify, assess and monitor disaster risks and enhance early warning.",
	3: "HFA3: Use knowledge, innovation and education to build a culture of safety and resilience at all levels.",
	4: "HFA4: Reduce the underlying risk factors.",
	5: "HFA5: Strengthen disaster preparedness for effective response at all levels.",
}

// Instance types of a deployment.
const (
	InstanceProduction = 1
	InstanceSetup      = 2
	InstanceTest       = 3
	InstanceDemo       = 4
)

// Scheduled task states.
const (
	ScheduledQueued    = "queued"
	ScheduledRunning   = "running"
	ScheduledCompleted = "completed"
	ScheduledFailed    = "failed"
)
