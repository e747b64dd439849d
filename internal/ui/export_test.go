package ui

// SettleTransferForTest exposes settleTransfer for testing
var SettleTransferForTest = settleTransfer
