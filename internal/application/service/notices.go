package service

import (
	"grameengo/internal/application/models"
	notificationmodels "grameengo/internal/notification/models"
)

type notice struct {
	title   string
	message string
	kind    notificationmodels.Type
}

const statusUpdateTitle = "Application Status Update"

var submittedNotice = notice{
	title:   "Application Submitted",
	message: "Your loan application has been submitted successfully.",
	kind:    notificationmodels.TypeSuccess,
}

var statusNotices = map[models.Status]notice{
	models.StatusUnderReview: {statusUpdateTitle, "Your loan application is under review.", notificationmodels.TypeInfo},
	models.StatusApproved:    {statusUpdateTitle, "Your loan application has been approved!", notificationmodels.TypeSuccess},
	models.StatusRejected:    {statusUpdateTitle, "Your loan application has been rejected.", notificationmodels.TypeWarning},
	models.StatusDisbursed:   {statusUpdateTitle, "Your loan has been disbursed successfully!", notificationmodels.TypeSuccess},
}
